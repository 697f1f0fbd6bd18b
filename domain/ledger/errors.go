package ledger

import (
	"errors"

	"fhelotto/domain/draw"
)

// Validation failures. All of them leave the ledger unchanged.
var (
	ErrInactiveRound       = errors.New("round is not accepting entries")
	ErrInsufficientPayment = errors.New("payment does not cover one ticket")
	ErrInvalidParticipant  = errors.New("participant address is empty")
	ErrPoolOverflow        = errors.New("payment would overflow the prize pool")
	ErrInvalidIndex        = errors.New("selected index is outside the entry list")
	ErrEmptyRound          = draw.ErrEmptyRound
	ErrRevealMismatch      = errors.New("revealed choices do not match the stored commitment")
	ErrRoundInactive       = errors.New("round is already finalized")
	ErrRoundStillActive    = errors.New("current round has not been finalized")
	ErrAlreadyBootstrapped = errors.New("ledger already holds a round")
)
