package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/tabclean/internal/core"
	"github.com/JonMunkholm/tabclean/internal/logging"
)

// WithRequestMetadata adds the client address and User-Agent to ctx for
// upload logging. RemoteAddr has already been resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, core.Client{IP: r.RemoteAddr, UserAgent: r.UserAgent()})
}

// sessionMiddleware binds every request to a session. A missing, unknown
// or expired cookie starts a fresh session and sets a new cookie.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil && c.Value != "" {
			if s.service.Touch(c.Value) == nil {
				sid = c.Value
			}
		}

		if sid == "" {
			sid = s.service.NewSession()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.CookieSecure,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(s.cfg.Session.TTL / time.Second),
			})
		}

		ctx := logging.ContextWithSessionID(r.Context(), sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the session bound by sessionMiddleware.
func sessionID(r *http.Request) string {
	return logging.SessionIDFromContext(r.Context())
}
