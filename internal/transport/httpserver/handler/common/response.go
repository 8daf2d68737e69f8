package common

import (
	"encoding/json"
	"net/http"

	"timebank-go/internal/domain/apperr"
	"timebank-go/internal/domain/identity"
	"timebank-go/pkg/logger"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// WriteDomainError maps a service error to a response. Expected failures are
// logged as business errors, everything else as internal errors.
func WriteDomainError(w http.ResponseWriter, log logger.Logger, op string, err error, args ...any) {
	kind := apperr.KindOf(err)
	status := StatusForKind(kind)
	if kind == apperr.KindInternal {
		log.InternalError(op+": failed", err, args...)
		WriteError(w, status, "internal_error", "internal error")
		return
	}

	log.BusinessError(op+": rejected", err, args...)
	WriteError(w, status, kind.String(), apperr.Message(err))
}

func StatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInsufficientBalance:
		return http.StatusUnprocessableEntity
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RequirePrincipal reads the caller from the request context and writes 401 when absent.
func RequirePrincipal(w http.ResponseWriter, r *http.Request) (identity.Principal, bool) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return identity.Principal{}, false
	}
	return principal, true
}

func InvalidJSON(w http.ResponseWriter) {
	WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
}
