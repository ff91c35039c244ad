package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ClanPulse/coc"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// writeError maps the gateway's typed errors onto conventional status codes so
// callers can tell "tag not found" from "temporarily rate-limited". Lookup
// routes treat a malformed tag the same as an unknown one and pass 404 as
// invalidTagStatus; the war and raid routes pass 400.
func (h *Handler) writeError(w http.ResponseWriter, err error, invalidTagStatus int) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, coc.ErrInvalidTag):
		status = invalidTagStatus
	case errors.Is(err, coc.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, coc.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, coc.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, coc.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, coc.ErrTimeout):
		status = http.StatusGatewayTimeout
	}

	if status >= 500 {
		h.log.Warn("upstream read failed", zap.Int("status", status), zap.Error(err))
	}

	body, _ := json.Marshal(errorResponse{Detail: err.Error()})
	writeJSON(w, status, body)
}
