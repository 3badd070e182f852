package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/logging"
)

type ErrorResponse struct {
	Status    string `json:"status"`
	Code      string `json:"code"`
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
		http.Error(w, `{"status":"error","code":"INTERNAL_ERROR","detail":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// classify maps an error onto status, code and client-facing detail.
// Client errors expose their message; server errors expose a generic one.
func classify(err error) (int, string, string) {
	de := core.GetDomainError(err)
	switch {
	case core.IsInvalidInput(err):
		return http.StatusBadRequest, core.ErrorCodeInvalidInput, de.Error()
	case core.IsUnavailable(err):
		return http.StatusServiceUnavailable, core.ErrorCodeUnavailable, de.Message
	case core.IsUpstream(err):
		return http.StatusBadGateway, core.ErrorCodeUpstream, "face classifier failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "request timed out"
	default:
		return http.StatusInternalServerError, core.ErrorCodeInternalError, "internal server error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, detail := classify(err)
	ev := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = logging.Ctx(r.Context()).Error()
	}
	ev.Err(err).Int("status", status).Str("code", code).Str("path", r.URL.Path).Msg("request failed")

	writeJSON(w, status, ErrorResponse{
		Status:    "error",
		Code:      code,
		Detail:    detail,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}
