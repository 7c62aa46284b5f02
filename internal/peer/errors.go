package peer

import "errors"

var (
	// ErrPhase is returned when an action arrives in the wrong
	// lifecycle stage, e.g. a move before the countdown finished.
	ErrPhase = errors.New("peer: action not valid in current phase")

	// ErrNotYourTurn is returned when the local player acts out of turn.
	ErrNotYourTurn = errors.New("peer: not your turn")

	// ErrInvalidMove is returned for a local action the rules reject.
	// Remote actions failing the same checks are dropped, not errored.
	ErrInvalidMove = errors.New("peer: invalid move")
)
