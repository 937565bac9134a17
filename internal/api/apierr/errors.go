package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeIllegalMove      = "ILLEGAL_MOVE"
	CodeInvalidMode      = "INVALID_MODE"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotParticipant   = "NOT_PARTICIPANT"
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeSessionFinished  = "SESSION_FINISHED"
	CodeConflict         = "CONFLICT"
	CodeAlreadyQueued    = "ALREADY_QUEUED"
	CodeNotQueued        = "NOT_QUEUED"
	CodeNoTicket         = "NO_TICKET"
	CodeNotEligible      = "NOT_ELIGIBLE"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Participation is checked before legality
	case errors.Is(err, model.ErrNotParticipant):
		return &httpError{http.StatusForbidden, APIError{CodeNotParticipant, "Not a participant of this session"}}
	case errors.Is(err, model.ErrInvalidMode):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidMode, err.Error()}}
	case model.IsValidation(err):
		return &httpError{http.StatusBadRequest, APIError{CodeIllegalMove, err.Error()}}

	case errors.Is(err, model.ErrSessionNotFound), errors.Is(err, model.ErrClockNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrSessionFinished):
		return &httpError{http.StatusConflict, APIError{CodeSessionFinished, "Session has finished"}}
	case errors.Is(err, model.ErrConcurrentUpdate):
		return &httpError{http.StatusConflict, APIError{CodeConflict, "Concurrent update, retry"}}

	case errors.Is(err, model.ErrAlreadyQueued):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyQueued, "Already queued for this mode"}}
	case errors.Is(err, model.ErrNotQueued):
		return &httpError{http.StatusNotFound, APIError{CodeNotQueued, "Not queued for this mode"}}
	case errors.Is(err, model.ErrNoTicket):
		return &httpError{http.StatusPaymentRequired, APIError{CodeNoTicket, "No ticket for this mode"}}
	case errors.Is(err, model.ErrNotEligible):
		return &httpError{http.StatusConflict, APIError{CodeNotEligible, "Player is not available for matchmaking"}}
	case errors.Is(err, model.ErrInvalidPresence):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Invalid presence status"}}

	case errors.Is(err, model.ErrStoreUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Store unavailable, retry later"}}

	case errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}
	case errors.Is(err, auth.ErrNoSecret):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeUnauthorized, "Token issuing is not configured"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
