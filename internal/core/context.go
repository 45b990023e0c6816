package core

import "context"

// Client identifies who sent a request. It is attached to upload logs.
type Client struct {
	IP        string
	UserAgent string
}

type clientKey struct{}

// ContextWithClient attaches c to ctx.
func ContextWithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the Client attached to ctx, or the zero value.
func ClientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}
