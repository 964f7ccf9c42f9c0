package game

import (
	"errors"
	"fmt"
)

// Error taxonomy. Nothing here is fatal to the process: validation failures
// are dropped at the gateway, everything else is surfaced to the caller as
// a rejected result while play continues.
var (
	ErrValidation     = errors.New("invalid message")
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoomFull       = errors.New("room is full")
	ErrGameStarted    = errors.New("game already started")
	ErrStateConflict  = errors.New("action not valid in current state")
	ErrCapacity       = errors.New("capacity exceeded")
)

// StateConflict rejections with a concrete reason. All unwrap to
// ErrStateConflict so callers classify with errors.Is.
var (
	ErrDeadlinePassed   = fmt.Errorf("%w: deadline passed", ErrStateConflict)
	ErrAlreadySubmitted = fmt.Errorf("%w: already submitted", ErrStateConflict)
	ErrAlreadyBuzzed    = fmt.Errorf("%w: already buzzed", ErrStateConflict)
	ErrNotBuzzWinner    = fmt.Errorf("%w: not the buzz winner", ErrStateConflict)
	ErrNotYourTurn      = fmt.Errorf("%w: not your turn", ErrStateConflict)
	ErrNotHost          = fmt.Errorf("%w: host only", ErrStateConflict)
)
