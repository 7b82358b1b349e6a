package http

import (
	"encoding/json"
	"net/http"

	applog "compras/internal/log"
	"compras/internal/source"
)

type errorBody struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Default(applog.ComponentHTTP).Error("encode response",
			applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, upstream int) {
	writeJSON(w, status, map[string]errorBody{"error": {
		Code:           code,
		Message:        message,
		UpstreamStatus: upstream,
	}})
}

// writeFetchError maps a source failure to an HTTP status: timeouts are 504,
// other transport problems and upstream non-200s are 502, an empty result is
// 404 and a bad payload 400. Aggregation is never attempted after any of
// these.
func writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := source.AsSourceError(err)
	if !ok {
		applog.Default(applog.ComponentHTTP).ErrorContext(r.Context(), "unexpected fetch failure",
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", 0)
		return
	}

	status := http.StatusBadGateway
	switch se.Code {
	case source.ErrCodeTransport:
		if se.IsTimeout() {
			status = http.StatusGatewayTimeout
		}
	case source.ErrCodeRemoteStatus:
		// 502 with the upstream status in the body.
	case source.ErrCodeEmptyResult:
		status = http.StatusNotFound
	case source.ErrCodeMalformedInput:
		status = http.StatusBadRequest
	}

	applog.Default(applog.ComponentHTTP).WarnContext(r.Context(), "fetch failed",
		applog.FieldError, se)
	writeError(w, status, string(se.Code), se.Message, se.Status)
}
