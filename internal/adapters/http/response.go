package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/contracts"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, contracts.ErrorResponse{Success: false, Error: message, Code: code})
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := mapDomainError(err)
	writeError(w, status, code, err.Error())
}

func mapDomainError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, domain.ErrAuthenticationFailed), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication_failed"
	case errors.Is(err, domain.ErrSignatureInvalid):
		return http.StatusForbidden, "signature_invalid"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrTimestampExpired):
		return http.StatusBadRequest, "timestamp_expired"
	case errors.Is(err, domain.ErrInvalidEventType):
		return http.StatusBadRequest, "invalid_event_type"
	case errors.Is(err, domain.ErrClickNotReportable):
		return http.StatusBadRequest, "click_not_reportable"
	case errors.Is(err, domain.ErrValidationFailed), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrTrackingCodeNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrDownstreamUnavailable):
		return http.StatusBadGateway, "downstream_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
