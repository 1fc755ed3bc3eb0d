package game

import "errors"

// Rejections: user-correctable precondition failures. Always returned,
// never panicked, and the game state is left unchanged.
var (
	ErrGameNotFound          = errors.New("game not found")
	ErrGameOver              = errors.New("game is over")
	ErrWrongPhase            = errors.New("operation not allowed in current phase")
	ErrHandIndexOutOfRange   = errors.New("hand index out of range")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrActionAlreadyUsed     = errors.New("action card already played this turn")
	ErrBuildLimitReached     = errors.New("build limit reached this turn")
	ErrLandmarkLimitReached  = errors.New("landmark already built this turn")
	ErrDiceAlreadyRolled     = errors.New("die already rolled this build phase")
	ErrDiceNotRolled         = errors.New("die must be rolled before leaving the build phase")
	ErrMustDiscard           = errors.New("hand over limit, discard required")
	ErrManualDiscardUsed     = errors.New("manual discard already used this turn")
	ErrCardNotPlayable       = errors.New("card cannot be played from the hand")
	ErrNoCrisisActive        = errors.New("defense cards require an active crisis event")
)
