package testhelpers

import (
	"context"
	"sync"

	"fhelotto/domain/draw"
	"fhelotto/domain/entities"
	"fhelotto/domain/events"
	"fhelotto/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
)

// MockRoundJournal is a mock implementation of RoundJournal
type MockRoundJournal struct {
	mock.Mock
}

func (m *MockRoundJournal) RoundStarted(ctx context.Context, round *entities.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockRoundJournal) EntryRecorded(ctx context.Context, entry *entities.Entry, prizePool int64) error {
	args := m.Called(ctx, entry, prizePool)
	return args.Error(0)
}

func (m *MockRoundJournal) RoundFinalized(ctx context.Context, round *entities.Round, winner *entities.WinnerRecord) error {
	args := m.Called(ctx, round, winner)
	return args.Error(0)
}

func (m *MockRoundJournal) LoadState(ctx context.Context) (*entities.LedgerState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerState), args.Error(1)
}

// MockRevealVault is a mock implementation of RevealVault
type MockRevealVault struct {
	mock.Mock
}

func (m *MockRevealVault) Store(ctx context.Context, roundNumber int64, commitment common.Hash, choices entities.Choices) error {
	args := m.Called(ctx, roundNumber, commitment, choices)
	return args.Error(0)
}

func (m *MockRevealVault) Load(ctx context.Context, roundNumber int64, commitment common.Hash) (entities.Choices, bool, error) {
	args := m.Called(ctx, roundNumber, commitment)
	return args.Get(0).(entities.Choices), args.Bool(1), args.Error(2)
}

func (m *MockRevealVault) DropRound(ctx context.Context, roundNumber int64) error {
	args := m.Called(ctx, roundNumber)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// RecordingPublisher keeps every published event in order
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the published events
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// OfType returns the published events of one type
func (p *RecordingPublisher) OfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range p.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// MockEntropySource is a mock implementation of draw.EntropySource
type MockEntropySource struct {
	mock.Mock
}

func (m *MockEntropySource) Sample(ctx context.Context) (draw.Entropy, error) {
	args := m.Called(ctx)
	return args.Get(0).(draw.Entropy), args.Error(1)
}

// MockLotteryMetrics is a mock implementation of LotteryMetrics
type MockLotteryMetrics struct {
	mock.Mock
}

func (m *MockLotteryMetrics) RecordEntry(ticketCount, payment int64) {
	m.Called(ticketCount, payment)
}

func (m *MockLotteryMetrics) RecordDraw(outcome string) {
	m.Called(outcome)
}

func (m *MockLotteryMetrics) SetPrizePool(pool int64) {
	m.Called(pool)
}

// MockLotteryService is a mock implementation of LotteryService
type MockLotteryService struct {
	mock.Mock
}

func (m *MockLotteryService) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLotteryService) Enter(ctx context.Context, participant common.Address, commitment common.Hash, payment int64) (*entities.Entry, error) {
	args := m.Called(ctx, participant, commitment, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Entry), args.Error(1)
}

func (m *MockLotteryService) SubmitReveal(ctx context.Context, participant common.Address, commitment common.Hash, choices entities.Choices) error {
	args := m.Called(ctx, participant, commitment, choices)
	return args.Error(0)
}

func (m *MockLotteryService) SelectWinner(ctx context.Context, entropy draw.Entropy) (*entities.Entry, error) {
	args := m.Called(ctx, entropy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Entry), args.Error(1)
}

func (m *MockLotteryService) Draw(ctx context.Context, caller common.Address) (*interfaces.LotteryDrawResult, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.LotteryDrawResult), args.Error(1)
}

func (m *MockLotteryService) StartNewRound(ctx context.Context, caller common.Address) (*entities.Round, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockLotteryService) Status(ctx context.Context) (*interfaces.LotteryStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.LotteryStatus), args.Error(1)
}

func (m *MockLotteryService) History(ctx context.Context) ([]*entities.WinnerRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WinnerRecord), args.Error(1)
}
