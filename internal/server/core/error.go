package core

import "errors"

// Error codes
const (
	ErrGameNotFound      = "GAME_NOT_FOUND"
	ErrInvalidMove       = "INVALID_MOVE"
	ErrNotHumanTurn      = "NOT_HUMAN_TURN"
	ErrGameOver          = "GAME_OVER"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidFEN        = "INVALID_FEN"
	ErrInternalError     = "INTERNAL_ERROR"
	ErrResourceLimit     = "RESOURCE_LIMIT"
	ErrUnauthorized      = "UNAUTHORIZED"
)

var (
	// ErrInvalidPosition is returned for a grid that is not 8x8 or holds unknown cells
	ErrInvalidPosition = errors.New("invalid position")

	// ErrWorkerBusy is returned when a worker cannot accept another request without overlapping searches
	ErrWorkerBusy = errors.New("worker busy")

	// ErrWorkerClosed is returned for requests sent to a stopped worker
	ErrWorkerClosed = errors.New("worker closed")
)
