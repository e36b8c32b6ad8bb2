package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure is logged with its technical detail and the request id,
// then shown to the client as a core.UserMessage: JSON for /api routes and
// JSON clients, an alert inside the page layout for browsers.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/logging"
	mw "github.com/JonMunkholm/FeedStatus/internal/web/middleware"
	"github.com/JonMunkholm/FeedStatus/internal/web/templates"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadRequest  = errors.New("invalid request")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
	Rows    []string          `json:"rows,omitempty"`
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	var (
		validation core.ValidationErrors
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validation), errors.Is(err, core.ErrEmptyBatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrParse), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrUnknownDataset):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing message. A zero
// statusCode is derived from err.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if statusCode == 0 {
		statusCode = statusFor(err)
	}
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= 500 {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if wantsJSON(r) {
		resp := errorBody(userMsg)
		var validation core.ValidationErrors
		if errors.As(err, &validation) {
			resp.Fields = validation.ByField()
		}
		var perr *core.ParseError
		if errors.As(err, &perr) {
			resp.Rows = perr.Rows
		}
		writeJSON(w, statusCode, resp)
		return
	}
	s.renderErrorPage(w, r, userMsg, statusCode)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, errorBody(msg))
}

func errorBody(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// renderErrorPage shows the alert inside the normal page chrome.
func (s *Server) renderErrorPage(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	nav := templates.Nav{Admin: mw.IsAdmin(r)}
	s.render(w, r, statusCode, templates.Layout("Error", nav, templates.ErrorAlert(msg.Message, msg.Action, msg.Code)))
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
