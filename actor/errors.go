package actor

import "errors"

var (
	// ErrReentrantCall is returned when a turn calls back into its own address.
	ErrReentrantCall = errors.New("actor: re-entrant call into an active turn")

	// ErrNilState is returned when a nil value is written.
	ErrNilState = errors.New("actor: nil state")
)
