package draw

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// EntropySource supplies the environment values for a draw
type EntropySource interface {
	Sample(ctx context.Context) (Entropy, error)
}

// SystemEntropy stands in for chain state: the clock plays block time and a
// random word plays difficulty
type SystemEntropy struct {
	now func() time.Time
}

// NewSystemEntropy creates an entropy source backed by the wall clock
func NewSystemEntropy(now func() time.Time) *SystemEntropy {
	if now == nil {
		now = time.Now
	}
	return &SystemEntropy{now: now}
}

// Sample reads the clock and eight random bytes
func (s *SystemEntropy) Sample(ctx context.Context) (Entropy, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return Entropy{}, fmt.Errorf("failed to read difficulty proxy: %w", err)
	}
	return Entropy{
		BlockTime:  uint64(s.now().Unix()),
		Difficulty: binary.BigEndian.Uint64(buf[:]),
	}, nil
}

// FixedEntropy always returns the same values; used for replays and tests
type FixedEntropy Entropy

// Sample returns the fixed values
func (f FixedEntropy) Sample(ctx context.Context) (Entropy, error) {
	return Entropy(f), nil
}
