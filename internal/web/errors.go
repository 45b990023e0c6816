package web

// errors.go maps service errors to HTTP responses.
//
// Errors are logged in full server-side and returned to clients as the
// core.UserMessage for the error: JSON for API routes, the page with an
// alert for browser routes.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/tabclean/internal/chart"
	"github.com/JonMunkholm/tabclean/internal/core"
	"github.com/JonMunkholm/tabclean/internal/ingest"
	"github.com/JonMunkholm/tabclean/internal/logging"
	"github.com/JonMunkholm/tabclean/internal/table"
	"github.com/JonMunkholm/tabclean/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondError logs err and writes the user-facing message with a status
// derived from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	log.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	s.respondUserError(w, r, msg, status)
}

// respondUserError writes msg in the format the client expects.
func (s *Server) respondUserError(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	if wantsJSON(r) {
		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}
	s.renderPageWithError(w, r, msg, status)
}

// respondValidation writes field-level validation failures.
func (s *Server) respondValidation(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.respondError(w, r, err)
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = validationMessage(fe)
	}

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{
		Error:   "invalid request",
		Message: "The request contains invalid values",
		Action:  "Correct the listed fields and try again",
		Code:    "VAL001",
		Fields:  fields,
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "unique":
		return "must not repeat a column"
	case "tabformat":
		return fmt.Sprintf("%q is not csv or Excel", fe.Value())
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, ingest.ErrFileTooLarge),
		strings.Contains(err.Error(), "request body too large"):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, core.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, chart.ErrNoNumericColumns):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrNoFiles),
		errors.Is(err, core.ErrTooManyFiles),
		errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrInvalidCSV),
		errors.Is(err, ingest.ErrInvalidSpreadsheet),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, table.ErrColumnNotFound),
		errors.Is(err, table.ErrDuplicateColumn),
		errors.Is(err, table.ErrInvalidFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// renderPageWithError re-renders the main page with msg on top, so a
// failed form submission keeps the user's files in view.
func (s *Server) renderPageWithError(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	data := templates.PageData{Error: &msg, MaxFiles: s.cfg.Upload.MaxFiles}
	if sid := sessionID(r); sid != "" {
		if views, err := s.service.Views(r.Context(), sid); err == nil {
			data.Files = views
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		slog.Error("render error page", "error", err)
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
