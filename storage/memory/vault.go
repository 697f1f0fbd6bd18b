package memory

import (
	"context"
	"errors"
	"sync"

	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

var ErrUnknownRound = errors.New("round was never journaled")

type revealKey struct {
	round      int64
	commitment common.Hash
}

// Vault is an in-memory reveal store
type Vault struct {
	mu      sync.RWMutex
	reveals map[revealKey]entities.Choices
}

// NewVault returns an empty vault
func NewVault() *Vault {
	return &Vault{reveals: make(map[revealKey]entities.Choices)}
}

func (v *Vault) Store(ctx context.Context, roundNumber int64, commitment common.Hash, choices entities.Choices) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reveals[revealKey{roundNumber, commitment}] = choices
	return nil
}

func (v *Vault) Load(ctx context.Context, roundNumber int64, commitment common.Hash) (entities.Choices, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	choices, ok := v.reveals[revealKey{roundNumber, commitment}]
	return choices, ok, nil
}

func (v *Vault) DropRound(ctx context.Context, roundNumber int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for k := range v.reveals {
		if k.round == roundNumber {
			delete(v.reveals, k)
		}
	}
	return nil
}

// Len returns the number of stored reveals
func (v *Vault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.reveals)
}
