package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fhelotto/domain/commitment"
	"fhelotto/domain/draw"
	"fhelotto/domain/entities"
	"fhelotto/domain/ledger"
	"fhelotto/domain/testhelpers"
	"fhelotto/storage/memory"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testOwner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob       = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type serviceFixture struct {
	ledger  *ledger.Ledger
	vault   *memory.Vault
	entropy *testhelpers.MockEntropySource
	metrics *testhelpers.MockLotteryMetrics
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// newServiceFixture builds a service over a real ledger and an in-memory vault
func newServiceFixture(t *testing.T, autoStart bool) (*serviceFixture, *lotteryService) {
	t.Helper()
	l, err := ledger.New(ledger.DefaultConfig(), memory.NewJournal(), &testhelpers.RecordingPublisher{})
	require.NoError(t, err)

	f := &serviceFixture{
		ledger:  l,
		vault:   memory.NewVault(),
		entropy: new(testhelpers.MockEntropySource),
		metrics: new(testhelpers.MockLotteryMetrics),
	}
	f.metrics.On("RecordEntry", mock.Anything, mock.Anything).Maybe()
	f.metrics.On("SetPrizePool", mock.Anything).Maybe()
	f.metrics.On("RecordDraw", mock.Anything).Maybe()

	svc := NewLotteryService(l, f.vault, f.entropy, f.metrics, LotteryServiceOptions{
		Owner:             testOwner,
		AutoStartNewRound: autoStart,
		Clock:             fixedClock,
	}).(*lotteryService)
	require.NoError(t, svc.Start(context.Background()))
	return f, svc
}

func TestLotteryService_Start(t *testing.T) {
	t.Parallel()

	f, svc := newServiceFixture(t, false)
	assert.Equal(t, int64(1), f.ledger.RoundNumber())

	// A second start resumes instead of opening another round
	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, int64(1), f.ledger.RoundNumber())
}

func TestLotteryService_Enter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, svc := newServiceFixture(t, false)

	entry, err := svc.Enter(ctx, alice, commitment.Commit(entities.Choices{true, false, true}, alice), 30000)
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.TicketCount)
	assert.Equal(t, fixedClock(), entry.Timestamp)

	f.metrics.AssertCalled(t, "RecordEntry", int64(3), int64(30000))
	f.metrics.AssertCalled(t, "SetPrizePool", int64(30000))

	_, err = svc.Enter(ctx, bob, commitment.Commit(entities.Choices{}, bob), 5)
	assert.ErrorIs(t, err, ledger.ErrInsufficientPayment)
}

func TestLotteryService_SubmitReveal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	choices := entities.Choices{false, true, true}

	tests := []struct {
		name        string
		participant common.Address
		choices     entities.Choices
		commitTo    common.Address
		wantErr     error
	}{
		{name: "matching reveal", participant: alice, choices: choices, commitTo: alice},
		{name: "flipped bit", participant: alice, choices: choices.Flip(0), commitTo: alice, wantErr: ledger.ErrRevealMismatch},
		{name: "someone else's commitment", participant: bob, choices: choices, commitTo: alice, wantErr: ErrUnknownCommitment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, svc := newServiceFixture(t, false)
			c := commitment.Commit(choices, tt.commitTo)
			_, err := svc.Enter(ctx, tt.commitTo, c, 10000)
			require.NoError(t, err)

			err = svc.SubmitReveal(ctx, tt.participant, c, tt.choices)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, f.vault.Len())
				return
			}
			require.NoError(t, err)
			stored, ok, err := f.vault.Load(ctx, 1, c)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, choices, stored)
		})
	}
}

func TestLotteryService_SubmitReveal_VaultError(t *testing.T) {
	t.Parallel()

	l, err := ledger.New(ledger.DefaultConfig(), memory.NewJournal(), nil)
	require.NoError(t, err)
	vault := new(testhelpers.MockRevealVault)
	svc := NewLotteryService(l, vault, nil, nil, LotteryServiceOptions{Owner: testOwner, Clock: fixedClock})

	ctx := context.Background()
	require.NoError(t, svc.Start(ctx))
	choices := entities.Choices{true, true, false}
	c := commitment.Commit(choices, alice)
	_, err = svc.Enter(ctx, alice, c, 10000)
	require.NoError(t, err)

	vault.On("Store", mock.Anything, int64(1), c, choices).Return(errors.New("bolt: database not open"))
	err = svc.SubmitReveal(ctx, alice, c, choices)
	assert.ErrorContains(t, err, "failed to store reveal")
	vault.AssertExpectations(t)
}

func TestLotteryService_Draw(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("non-owner rejected", func(t *testing.T) {
		t.Parallel()
		f, svc := newServiceFixture(t, false)
		_, err := svc.Draw(ctx, alice)
		assert.ErrorIs(t, err, ErrUnauthorized)
		f.entropy.AssertNotCalled(t, "Sample", mock.Anything)
	})

	t.Run("empty round", func(t *testing.T) {
		t.Parallel()
		f, svc := newServiceFixture(t, false)
		f.entropy.On("Sample", mock.Anything).Return(draw.Entropy{BlockTime: 1, Difficulty: 2}, nil)

		_, err := svc.Draw(ctx, testOwner)
		assert.ErrorIs(t, err, ledger.ErrEmptyRound)
		f.metrics.AssertCalled(t, "RecordDraw", DrawOutcomeEmpty)
	})

	t.Run("entropy failure", func(t *testing.T) {
		t.Parallel()
		f, svc := newServiceFixture(t, false)
		f.entropy.On("Sample", mock.Anything).Return(draw.Entropy{}, errors.New("rng exhausted"))

		_, err := svc.Draw(ctx, testOwner)
		assert.ErrorContains(t, err, "failed to sample draw entropy")
		f.metrics.AssertCalled(t, "RecordDraw", DrawOutcomeFailed)
		assert.True(t, f.ledger.Active())
	})

	t.Run("missing reveal keeps round open", func(t *testing.T) {
		t.Parallel()
		f, svc := newServiceFixture(t, false)
		_, err := svc.Enter(ctx, alice, commitment.Commit(entities.Choices{true}, alice), 10000)
		require.NoError(t, err)
		f.entropy.On("Sample", mock.Anything).Return(draw.Entropy{BlockTime: 9, Difficulty: 9}, nil)

		_, err = svc.Draw(ctx, testOwner)
		assert.ErrorIs(t, err, ErrRevealMissing)
		assert.True(t, f.ledger.Active())
		assert.Equal(t, int64(10000), f.ledger.PrizePool())
	})

	t.Run("winner paid and next round opened", func(t *testing.T) {
		t.Parallel()
		f, svc := newServiceFixture(t, true)
		players := map[common.Address]entities.Choices{
			alice: {true, false, true},
			bob:   {false, false, false},
		}
		for _, p := range []common.Address{alice, bob} {
			c := commitment.Commit(players[p], p)
			_, err := svc.Enter(ctx, p, c, 10000)
			require.NoError(t, err)
			require.NoError(t, svc.SubmitReveal(ctx, p, c, players[p]))
		}
		f.entropy.On("Sample", mock.Anything).Return(draw.Entropy{BlockTime: 1700000000, Difficulty: 42}, nil)

		result, err := svc.Draw(ctx, testOwner)
		require.NoError(t, err)
		require.NotNil(t, result.Winner)
		assert.Equal(t, players[result.Winner.Participant], result.Winner.Choices)
		assert.Equal(t, int64(16000), result.Winner.Payout)
		assert.Equal(t, int64(4000), result.Winner.HouseShare)

		require.NotNil(t, result.NextRound)
		assert.Equal(t, int64(2), result.NextRound.Number)
		assert.True(t, f.ledger.Active())
		assert.Equal(t, 0, f.vault.Len(), "reveals are purged after the draw")
		f.metrics.AssertCalled(t, "RecordDraw", DrawOutcomeWon)

		history, err := svc.History(ctx)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, result.Winner.Participant, history[0].Participant)
	})
}

func TestLotteryService_StartNewRound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, svc := newServiceFixture(t, false)

	_, err := svc.StartNewRound(ctx, alice)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.StartNewRound(ctx, testOwner)
	assert.ErrorIs(t, err, ledger.ErrRoundStillActive)

	choices := entities.Choices{true, true, true}
	c := commitment.Commit(choices, bob)
	_, err = svc.Enter(ctx, bob, c, 10000)
	require.NoError(t, err)
	require.NoError(t, svc.SubmitReveal(ctx, bob, c, choices))
	f.entropy.On("Sample", mock.Anything).Return(draw.Entropy{BlockTime: 5, Difficulty: 5}, nil)

	result, err := svc.Draw(ctx, testOwner)
	require.NoError(t, err)
	assert.Nil(t, result.NextRound)
	assert.False(t, f.ledger.Active())

	round, err := svc.StartNewRound(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), round.Number)
}

func TestLotteryService_Status(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, svc := newServiceFixture(t, false)

	_, err := svc.Enter(ctx, alice, commitment.Commit(entities.Choices{}, alice), 10000)
	require.NoError(t, err)
	_, err = svc.Enter(ctx, bob, commitment.Commit(entities.Choices{}, bob), 20000)
	require.NoError(t, err)
	_, err = svc.Enter(ctx, alice, commitment.Commit(entities.Choices{true}, alice), 10000)
	require.NoError(t, err)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.RoundNumber)
	assert.True(t, status.Active)
	assert.Equal(t, int64(40000), status.PrizePool)
	assert.Equal(t, 3, status.EntryCount)
	assert.Equal(t, int64(4), status.TotalTickets)
	assert.Equal(t, int64(10000), status.FeePerTicket)
	assert.Equal(t, fixedClock(), status.StartedAt)
	assert.Equal(t, []entities.ParticipantTickets{
		{Participant: alice, TicketCount: 2},
		{Participant: bob, TicketCount: 2},
	}, status.Participants)
}
