// Package draw picks the winning entry index from public, weakly random inputs.
//
// The result is fully reproducible: anyone who learns the block time, the
// difficulty value, the entry count and the round secret can recompute it.
// The draw is therefore only as unpredictable as those inputs were at
// submission time.
package draw

import (
	"encoding/binary"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrEmptyRound is returned when a draw is attempted on a round without entries
var ErrEmptyRound = errors.New("round has no entries")

// Entropy holds the environment values mixed into a draw
type Entropy struct {
	BlockTime  uint64 `json:"block_time"`
	Difficulty uint64 `json:"difficulty"`
}

// SelectIndex returns keccak256(blockTime || difficulty || entryCount || secret) mod entryCount,
// with the integers encoded as 32-byte big-endian words
func SelectIndex(blockTime, difficulty uint64, entryCount int, secret common.Hash) (int, error) {
	if entryCount <= 0 {
		return 0, ErrEmptyRound
	}

	digest := crypto.Keccak256(
		word(blockTime),
		word(difficulty),
		word(uint64(entryCount)),
		secret.Bytes(),
	)

	n := new(big.Int).SetBytes(digest)
	n.Mod(n, big.NewInt(int64(entryCount)))
	return int(n.Int64()), nil
}

// Select is SelectIndex over an Entropy value
func (e Entropy) Select(entryCount int, secret common.Hash) (int, error) {
	return SelectIndex(e.BlockTime, e.Difficulty, entryCount, secret)
}

// DeriveRoundSecret hashes the start time, the initiator and, when present,
// the previous round's secret. It stays unknown until those inputs are public.
func DeriveRoundSecret(previous *common.Hash, now time.Time, initiator common.Address) common.Hash {
	parts := [][]byte{word(uint64(now.Unix())), initiator.Bytes()}
	if previous != nil {
		parts = append(parts, previous.Bytes())
	}
	return crypto.Keccak256Hash(parts...)
}

func word(v uint64) []byte {
	var w [32]byte
	binary.BigEndian.PutUint64(w[24:], v)
	return w[:]
}
