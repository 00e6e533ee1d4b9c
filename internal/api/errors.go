package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trubochisty/culvert-core/internal/auth"
	"github.com/trubochisty/culvert-core/internal/culvert"
)

// Error is a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // best-effort write; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps domain errors onto the HTTP error taxonomy:
// validation 400, credential/token failures 401, policy denials 403,
// missing records 404, uniqueness conflicts 409, everything else 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var authValidation *auth.ValidationError
	var culvertValidation *culvert.ValidationError

	switch {
	case errors.As(err, &authValidation):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, authValidation.Error())
	case errors.As(err, &culvertValidation):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, culvertValidation.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeUnauthorized(w, "invalid credentials")
	case errors.Is(err, auth.ErrTokenExpired):
		writeUnauthorized(w, "token expired")
	case errors.Is(err, auth.ErrTokenInvalid):
		writeUnauthorized(w, "invalid token")
	case errors.Is(err, auth.ErrForbidden):
		writeForbidden(w, "operation not permitted")
	case errors.Is(err, auth.ErrUserNotFound):
		writeNotFound(w, "user not found")
	case errors.Is(err, culvert.ErrNotFound):
		writeNotFound(w, "culvert not found")
	case errors.Is(err, auth.ErrUsernameExists):
		writeConflict(w, "username already taken")
	case errors.Is(err, auth.ErrEmailExists):
		writeConflict(w, "email already registered")
	case errors.Is(err, culvert.ErrSerialNumberExists):
		writeConflict(w, "serial number already registered")
	default:
		s.logger.Error("unhandled error in request", "error", err)
		writeInternalError(w, "internal server error")
	}
}
