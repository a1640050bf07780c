package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tjfontaine/plume/internal/domain"
	"github.com/tjfontaine/plume/internal/storage"
	"github.com/tjfontaine/plume/pkg/hook"
	"github.com/tjfontaine/plume/pkg/hookutil"
)

type errorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := translateError(err)
	AddError(r.Context(), err)

	if status >= http.StatusInternalServerError {
		s.logger.Error("service call failed",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorEnvelope{Error: body})
}

// translateError maps service, chain, and store failures onto the wire
// contract. Classified chain errors are unwrapped so clients see the
// interceptor's own failure rather than the classification wrapper.
func translateError(err error) (int, errorBody) {
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.HTTPStatusCode(), errorBody{
			Type:    string(svcErr.Type),
			Code:    string(svcErr.Code),
			Message: svcErr.Message,
			Field:   svcErr.Field,
		}
	}

	var denied *hookutil.DeniedError
	if errors.As(err, &denied) {
		return http.StatusForbidden, errorBody{
			Type:    string(domain.ErrorTypeForbidden),
			Code:    string(domain.ErrorCodeWebhookDenied),
			Message: denied.Error(),
		}
	}

	switch {
	case errors.Is(err, hookutil.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, errorBody{
			Type:    string(domain.ErrorTypeMethodNotAllowed),
			Code:    string(domain.ErrorCodeTransportDenied),
			Message: causeMessage(err),
		}
	case errors.Is(err, hookutil.ErrMissingField):
		return http.StatusBadRequest, errorBody{
			Type:    string(domain.ErrorTypeBadRequest),
			Code:    string(domain.ErrorCodeMissingField),
			Message: causeMessage(err),
		}
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, errorBody{
			Type:    string(domain.ErrorTypeNotFound),
			Code:    string(domain.ErrorCodeRecordNotFound),
			Message: causeMessage(err),
		}
	case errors.Is(err, storage.ErrExists):
		return http.StatusConflict, errorBody{
			Type:    string(domain.ErrorTypeConflict),
			Code:    string(domain.ErrorCodeRecordExists),
			Message: causeMessage(err),
		}
	}

	return http.StatusInternalServerError, errorBody{
		Type:    string(domain.ErrorTypeServer),
		Message: err.Error(),
	}
}

// causeMessage strips the chain classification wrapper when present.
func causeMessage(err error) string {
	if herr, ok := hook.AsError(err); ok && herr.Err != nil {
		return herr.Err.Error()
	}
	return err.Error()
}
