package repository

import (
	"context"
	"testing"
	"time"

	"fhelotto/domain/commitment"
	"fhelotto/domain/draw"
	"fhelotto/domain/entities"
	"fhelotto/domain/ledger"
	"fhelotto/repository/testutil"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundJournal_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	journal := NewRoundJournal(NewUnitOfWorkFactory(testDB.DB))

	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice := common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	l, err := ledger.New(ledger.DefaultConfig(), journal, nil)
	require.NoError(t, err)

	t.Run("empty database", func(t *testing.T) {
		state, err := journal.LoadState(ctx)
		require.NoError(t, err)
		assert.Nil(t, state.Current)
		assert.Empty(t, state.History)
	})

	_, err = l.StartNewRound(ctx, base, owner)
	require.NoError(t, err)

	aliceChoices := entities.Choices{true, false, true}
	bobChoices := entities.Choices{false, true, true}
	_, err = l.RecordEntry(ctx, commitment.Commit(aliceChoices, alice), 10000, alice, base.Add(time.Minute))
	require.NoError(t, err)
	_, err = l.RecordEntry(ctx, commitment.Commit(bobChoices, bob), 25000, bob, base.Add(2*time.Minute))
	require.NoError(t, err)

	t.Run("active round survives restart", func(t *testing.T) {
		state, err := journal.LoadState(ctx)
		require.NoError(t, err)
		require.NotNil(t, state.Current)

		restored, err := ledger.New(ledger.DefaultConfig(), journal, nil)
		require.NoError(t, err)
		require.NoError(t, restored.Restore(state))

		if diff := cmp.Diff(l.CurrentRound(), restored.CurrentRound()); diff != "" {
			t.Errorf("restored round mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, int64(35000), restored.PrizePool())
		assert.Equal(t, int64(2), restored.TicketsOf(bob))
	})

	reveals := map[common.Address]entities.Choices{alice: aliceChoices, bob: bobChoices}
	entropy := draw.Entropy{BlockTime: ^uint64(0), Difficulty: 1 << 63}
	record, err := l.Draw(ctx, entropy, func(_ context.Context, e entities.Entry) (entities.Choices, error) {
		return reveals[e.Participant], nil
	}, base.Add(time.Hour))
	require.NoError(t, err)

	t.Run("finalized round and history", func(t *testing.T) {
		state, err := journal.LoadState(ctx)
		require.NoError(t, err)
		require.NotNil(t, state.Current)
		assert.False(t, state.Current.Active)
		require.NotNil(t, state.Current.FinalizedAt)
		assert.True(t, base.Add(time.Hour).Equal(*state.Current.FinalizedAt))
		assert.Equal(t, int64(0), state.Current.PrizePool)

		require.Len(t, state.History, 1)
		if diff := cmp.Diff(record, state.History[0]); diff != "" {
			t.Errorf("winner record mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, ^uint64(0), state.History[0].BlockTime)
		require.NotNil(t, state.Current.Winner)
		assert.Equal(t, record.Participant, state.Current.Winner.Participant)
	})

	t.Run("second round", func(t *testing.T) {
		round, err := l.StartNewRound(ctx, base.Add(2*time.Hour), owner)
		require.NoError(t, err)
		assert.Equal(t, int64(2), round.Number)

		state, err := journal.LoadState(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), state.Current.Number)
		assert.True(t, state.Current.Active)
		assert.Empty(t, state.Current.Entries)
		assert.Len(t, state.History, 1)
	})

	t.Run("rejects a second active round", func(t *testing.T) {
		err := journal.RoundStarted(ctx, entities.NewRound(3, common.Hash{1}, owner, base))
		assert.Error(t, err)
	})
}
