package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_RoundLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := NewJournal()
	participant := common.Address{0x0b}

	round := entities.NewRound(1, common.Hash{0x01}, common.Address{0xaa}, time.Unix(100, 0))
	require.NoError(t, j.RoundStarted(ctx, round))

	entry := &entities.Entry{RoundNumber: 1, Participant: participant, TicketCount: 2, Payment: 20000}
	require.NoError(t, j.EntryRecorded(ctx, entry, 20000))

	// Stored rounds are copies
	round.PrizePool = 1
	stored, ok := j.Round(1)
	require.True(t, ok)
	assert.Equal(t, int64(20000), stored.PrizePool)
	assert.Equal(t, int64(2), stored.Tickets[participant])

	closed := stored.Clone()
	closed.Active = false
	closed.PrizePool = 0
	winner := &entities.WinnerRecord{RoundNumber: 1, Participant: participant, Payout: 16000, HouseShare: 4000}
	require.NoError(t, j.RoundFinalized(ctx, closed, winner))

	state, err := j.LoadState(ctx)
	require.NoError(t, err)
	assert.False(t, state.Current.Active)
	require.Len(t, state.History, 1)
	assert.Equal(t, int64(16000), state.History[0].Payout)
}

func TestJournal_Failures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := NewJournal()

	err := j.EntryRecorded(ctx, &entities.Entry{RoundNumber: 9}, 0)
	assert.ErrorIs(t, err, ErrUnknownRound)

	failure := errors.New("disk full")
	j.FailWith(failure)
	round := entities.NewRound(1, common.Hash{}, common.Address{}, time.Unix(0, 0))
	assert.ErrorIs(t, j.RoundStarted(ctx, round), failure)

	// Only the next write fails
	require.NoError(t, j.RoundStarted(ctx, round))
	_, ok := j.Round(1)
	assert.True(t, ok)
}

func TestVault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	v := NewVault()
	c1, c2 := common.Hash{0x01}, common.Hash{0x02}

	require.NoError(t, v.Store(ctx, 1, c1, entities.Choices{true, false, true}))
	require.NoError(t, v.Store(ctx, 2, c2, entities.Choices{false, true, false}))

	choices, ok, err := v.Load(ctx, 1, c1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entities.Choices{true, false, true}, choices)

	_, ok, err = v.Load(ctx, 2, c1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, v.DropRound(ctx, 1))
	assert.Equal(t, 1, v.Len())
}
