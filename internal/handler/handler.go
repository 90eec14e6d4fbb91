package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"qahwa/internal/model"
	"qahwa/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// MutationResponse is returned by cart mutations.
type MutationResponse struct {
	Notice model.Notice    `json:"notice"`
	Cart   *model.CartView `json:"cart,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent.
		return
	}
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// writeDomainError maps err to a status code by its kind. Errors that are not
// domain errors are reported as internal errors without their details.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("unexpected error")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, model.MsgUnexpected, logger)
		return
	}

	if de.Err != nil {
		logger.Error().Err(de.Err).Str("code", de.Code).Msg("request failed")
	}
	writeError(w, statusFor(de.Kind), de.Code, de.Message, logger)
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindUnauthorised:
		return http.StatusUnauthorized
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// sessionFrom returns the session attached by the session middleware.
func sessionFrom(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeDomainError(w, model.ErrMissingSession, logger)
		return session.Session{}, false
	}
	return sess, true
}

// userFrom returns the authenticated user of the request.
func userFrom(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	sess, ok := sessionFrom(w, r, logger)
	if !ok {
		return uuid.Nil, false
	}
	if !sess.Authenticated() {
		writeError(w, http.StatusUnauthorized, model.ErrCodeNotAuthenticated, model.MsgNotAuthenticated, logger)
		return uuid.Nil, false
	}
	return *sess.UserID, true
}

func int64Var(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid "+name, logger)
		return 0, false
	}
	return id, true
}

func uuidVar(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid "+name, logger)
		return uuid.Nil, false
	}
	return id, true
}
