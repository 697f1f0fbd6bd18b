// Package revealvault keeps participants' reveals in a local bbolt file,
// one bucket per round, so they survive an operator restart without ever
// entering the shared round journal.
package revealvault

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const openTimeout = time.Second

// Vault stores reveals keyed by round and commitment
type Vault struct {
	db *bolt.DB
}

// Open opens or creates the vault file at path
func Open(path string) (*Vault, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open reveal vault %s: %w", path, err)
	}
	log.WithField("path", path).Info("Opened reveal vault")
	return &Vault{db: db}, nil
}

// Close releases the file lock
func (v *Vault) Close() error {
	return v.db.Close()
}

func bucketName(roundNumber int64) []byte {
	return []byte("round-" + strconv.FormatInt(roundNumber, 10))
}

// Store saves the choices behind a commitment
func (v *Vault) Store(ctx context.Context, roundNumber int64, c common.Hash, choices entities.Choices) error {
	return v.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(roundNumber))
		if err != nil {
			return fmt.Errorf("failed to create round bucket: %w", err)
		}
		return b.Put(c.Bytes(), []byte{choices.Bits()})
	})
}

// Load returns the stored choices, or false when nothing was deposited
func (v *Vault) Load(ctx context.Context, roundNumber int64, c common.Hash) (entities.Choices, bool, error) {
	var (
		choices entities.Choices
		found   bool
	)
	err := v.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(roundNumber))
		if b == nil {
			return nil
		}
		raw := b.Get(c.Bytes())
		if raw == nil {
			return nil
		}
		if len(raw) != 1 {
			return fmt.Errorf("corrupt reveal for %s: %d bytes", c.Hex(), len(raw))
		}
		choices = entities.ChoicesFromBits(raw[0])
		found = true
		return nil
	})
	if err != nil {
		return entities.Choices{}, false, err
	}
	return choices, found, nil
}

// DropRound deletes a round's bucket
func (v *Vault) DropRound(ctx context.Context, roundNumber int64) error {
	return v.db.Update(func(tx *bolt.Tx) error {
		name := bucketName(roundNumber)
		if tx.Bucket(name) == nil {
			return nil
		}
		return tx.DeleteBucket(name)
	})
}

// Rounds lists the rounds that still hold reveals
func (v *Vault) Rounds() ([]int64, error) {
	var rounds []int64
	err := v.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			n, err := strconv.ParseInt(string(name[len("round-"):]), 10, 64)
			if err != nil {
				return fmt.Errorf("unexpected bucket %q: %w", name, err)
			}
			rounds = append(rounds, n)
			return nil
		})
	})
	return rounds, err
}
