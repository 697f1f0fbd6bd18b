package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"fhelotto/domain/commitment"
	"fhelotto/domain/entities"
	"fhelotto/domain/ledger"
	"fhelotto/domain/services"
	"fhelotto/domain/testhelpers"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var consumerAlice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")

func startConsumer(t *testing.T) (*fakeBus, *testhelpers.MockLotteryService) {
	t.Helper()
	bus := newFakeBus()
	service := new(testhelpers.MockLotteryService)
	consumer := NewCommandConsumer(bus, service)
	require.NoError(t, consumer.Start(context.Background()))
	return bus, service
}

func TestCommandConsumer_Enter(t *testing.T) {
	t.Parallel()

	c := commitment.Commit(entities.Choices{true, false, true}, consumerAlice)
	valid := fmt.Sprintf(`{"participant":%q,"commitment":%q,"payment":20000}`, consumerAlice.Hex(), c.Hex())

	tests := []struct {
		name       string
		body       string
		serviceErr error
		callsEnter bool
		wantErr    bool
	}{
		{name: "recorded", body: valid, callsEnter: true},
		{name: "malformed json", body: `{"participant":`},
		{name: "bad address", body: fmt.Sprintf(`{"participant":"0x12","commitment":%q,"payment":1}`, c.Hex())},
		{name: "short commitment", body: fmt.Sprintf(`{"participant":%q,"commitment":"0xabcd","payment":1}`, consumerAlice.Hex())},
		{name: "rejected by ledger", body: valid, serviceErr: fmt.Errorf("%w: paid 1", ledger.ErrInsufficientPayment), callsEnter: true},
		{name: "closed round", body: valid, serviceErr: ledger.ErrInactiveRound, callsEnter: true},
		{name: "pool overflow", body: valid, serviceErr: ledger.ErrPoolOverflow, callsEnter: true},
		{name: "journal down", body: valid, serviceErr: errors.New("failed to journal entry: conn refused"), callsEnter: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bus, service := startConsumer(t)
			if tt.callsEnter {
				entry := &entities.Entry{RoundNumber: 1, Participant: consumerAlice, Commitment: c, TicketCount: 2, Payment: 20000}
				if tt.serviceErr != nil {
					entry = nil
				}
				service.On("Enter", mock.Anything, consumerAlice, c, int64(20000)).Return(entry, tt.serviceErr)
			}

			err := bus.deliver(SubjectEnterCommand, []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.callsEnter {
				service.AssertExpectations(t)
			} else {
				service.AssertNotCalled(t, "Enter", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCommandConsumer_Reveal(t *testing.T) {
	t.Parallel()

	choices := entities.Choices{false, true, true}
	c := commitment.Commit(choices, consumerAlice)

	t.Run("stored", func(t *testing.T) {
		t.Parallel()
		bus, service := startConsumer(t)
		service.On("SubmitReveal", mock.Anything, consumerAlice, c, choices).Return(nil)

		body := fmt.Sprintf(`{"participant":%q,"commitment":%q,"choices":"011"}`, consumerAlice.Hex(), c.Hex())
		assert.NoError(t, bus.deliver(SubjectRevealCommand, []byte(body)))
		service.AssertExpectations(t)
	})

	t.Run("unknown commitment is acked", func(t *testing.T) {
		t.Parallel()
		bus, service := startConsumer(t)
		service.On("SubmitReveal", mock.Anything, consumerAlice, c, choices).Return(services.ErrUnknownCommitment)

		body := fmt.Sprintf(`{"participant":%q,"commitment":%q,"choices":"false,true,true"}`, consumerAlice.Hex(), c.Hex())
		assert.NoError(t, bus.deliver(SubjectRevealCommand, []byte(body)))
	})

	t.Run("bad choices dropped", func(t *testing.T) {
		t.Parallel()
		bus, service := startConsumer(t)

		body := fmt.Sprintf(`{"participant":%q,"commitment":%q,"choices":"0112"}`, consumerAlice.Hex(), c.Hex())
		assert.NoError(t, bus.deliver(SubjectRevealCommand, []byte(body)))
		service.AssertNotCalled(t, "SubmitReveal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("vault failure redelivers", func(t *testing.T) {
		t.Parallel()
		bus, service := startConsumer(t)
		service.On("SubmitReveal", mock.Anything, consumerAlice, c, choices).Return(errors.New("failed to store reveal: disk"))

		body := fmt.Sprintf(`{"participant":%q,"commitment":%q,"choices":"011"}`, consumerAlice.Hex(), c.Hex())
		assert.ErrorContains(t, bus.deliver(SubjectRevealCommand, []byte(body)), "failed to process reveal command")
	})
}
