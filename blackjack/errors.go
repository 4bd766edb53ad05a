package blackjack

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not allowed in the current round status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrSourceUnavailable is returned when the card source cannot be reached or answers nonsense.
	ErrSourceUnavailable = errors.New("card source unavailable")

	// ErrInvalidShoe is returned when the card source does not know the shoe or it has run out.
	ErrInvalidShoe = errors.New("invalid shoe")
)
