package model

import "errors"

// Common errors used across the application
var (
	// Move validation errors
	ErrInvalidPosition  = errors.New("invalid board position")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrSuicide          = errors.New("move would be suicide")
	ErrKo               = errors.New("move violates ko")
	ErrSuperko          = errors.New("move repeats an earlier position")
	ErrNotPlayerTurn    = errors.New("not this player's turn")
	ErrPhaseNotActive   = errors.New("session is not accepting moves")
	ErrForbiddenCell    = errors.New("cell may not be played")
	ErrNoBudget         = errors.New("no uses of this action left")
	ErrActionNotAllowed = errors.New("action not allowed in this mode")
	ErrSlideBlocked     = errors.New("stone cannot slide in that direction")
	ErrNotOwnStone      = errors.New("point does not hold one of your stones")
	ErrMustRoll         = errors.New("roll the dice before placing")
	ErrInvalidPower     = errors.New("invalid toss power")

	// Pre-game errors
	ErrInvalidBid       = errors.New("invalid bid")
	ErrInvalidColor     = errors.New("invalid color")
	ErrInvalidPlacement = errors.New("invalid base stone placement")
	ErrAlreadySubmitted = errors.New("already submitted for this round")
	ErrWrongPhase       = errors.New("not allowed in the current phase")
	ErrInvalidMode      = errors.New("invalid mode")

	// Session state errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFinished  = errors.New("session has finished")
	ErrNotParticipant   = errors.New("player is not part of this session")
	ErrClockNotFound    = errors.New("clock not found")
	ErrConcurrentUpdate = errors.New("concurrent update, retry")

	// Player and queue errors
	ErrPlayerNotFound  = errors.New("player not found")
	ErrNoTicket        = errors.New("no ticket for this mode")
	ErrAlreadyQueued   = errors.New("player is already queued")
	ErrNotQueued       = errors.New("player is not queued")
	ErrNotEligible     = errors.New("player is not eligible for matchmaking")
	ErrInvalidPresence = errors.New("invalid presence status")

	// Infrastructure errors
	ErrCollaboratorTimeout = errors.New("collaborator did not respond in time")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrRecordNotFound      = errors.New("record not found")
)

// ValidationError marks an illegal move or submission. The session is left unchanged.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid wraps err as a ValidationError
func Invalid(err error) error {
	return &ValidationError{Err: err}
}

// IsValidation returns true if err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
