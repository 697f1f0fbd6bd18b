package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"fhelotto/domain/entities"
	"fhelotto/domain/interfaces"
	"fhelotto/domain/ledger"
	"fhelotto/domain/services"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// MessageHandler defines a function that handles raw message bytes
type MessageHandler func(ctx context.Context, data []byte) error

// MessageSubscriber delivers raw messages for a subject
type MessageSubscriber interface {
	Subscribe(subject string, handler func([]byte) error) error
}

// EnterCommand asks the engine to record a committed entry
type EnterCommand struct {
	Participant string `json:"participant"`
	Commitment  string `json:"commitment"`
	Payment     int64  `json:"payment"`
}

// RevealCommand deposits the choices behind a commitment
type RevealCommand struct {
	Participant string `json:"participant"`
	Commitment  string `json:"commitment"`
	Choices     string `json:"choices"`
}

// CommandConsumer routes command subjects to the lottery service
type CommandConsumer struct {
	subscriber MessageSubscriber
	service    interfaces.LotteryService
	handlers   map[string]MessageHandler
	mu         sync.RWMutex
}

// NewCommandConsumer creates a consumer with the enter and reveal handlers registered
func NewCommandConsumer(subscriber MessageSubscriber, service interfaces.LotteryService) *CommandConsumer {
	cc := &CommandConsumer{
		subscriber: subscriber,
		service:    service,
		handlers:   make(map[string]MessageHandler),
	}
	cc.RegisterHandler(SubjectEnterCommand, cc.HandleEnter)
	cc.RegisterHandler(SubjectRevealCommand, cc.HandleReveal)
	return cc
}

// RegisterHandler registers a handler for a specific subject
func (cc *CommandConsumer) RegisterHandler(subject string, handler MessageHandler) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.handlers[subject] = handler
	log.WithField("subject", subject).Info("Registered message handler")
}

// Start subscribes every registered subject. Messages are handled with ctx.
func (cc *CommandConsumer) Start(ctx context.Context) error {
	cc.mu.RLock()
	subjects := make([]string, 0, len(cc.handlers))
	for subject := range cc.handlers {
		subjects = append(subjects, subject)
	}
	cc.mu.RUnlock()

	for _, subject := range subjects {
		subject := subject
		err := cc.subscriber.Subscribe(subject, func(data []byte) error {
			return cc.dispatch(ctx, subject, data)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}

	log.WithField("subjects", subjects).Info("Command consumer started")
	return nil
}

func (cc *CommandConsumer) dispatch(ctx context.Context, subject string, data []byte) error {
	cc.mu.RLock()
	handler, exists := cc.handlers[subject]
	cc.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no handler registered for subject: %s", subject)
	}
	return handler(ctx, data)
}

// HandleEnter records an entry. Rejected commands are acked; only
// infrastructure failures are returned for redelivery.
func (cc *CommandConsumer) HandleEnter(ctx context.Context, data []byte) error {
	var cmd EnterCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		log.WithError(err).Warn("Dropping malformed enter command")
		return nil
	}

	participant, c, err := parseIdentity(cmd.Participant, cmd.Commitment)
	if err != nil {
		log.WithError(err).Warn("Dropping invalid enter command")
		return nil
	}

	if _, err := cc.service.Enter(ctx, participant, c, cmd.Payment); err != nil {
		return cc.settle(err, log.Fields{"participant": cmd.Participant, "payment": cmd.Payment}, "enter")
	}
	return nil
}

// HandleReveal stores a participant's reveal
func (cc *CommandConsumer) HandleReveal(ctx context.Context, data []byte) error {
	var cmd RevealCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		log.WithError(err).Warn("Dropping malformed reveal command")
		return nil
	}

	participant, c, err := parseIdentity(cmd.Participant, cmd.Commitment)
	if err != nil {
		log.WithError(err).Warn("Dropping invalid reveal command")
		return nil
	}
	choices, err := entities.ParseChoices(cmd.Choices)
	if err != nil {
		log.WithError(err).Warn("Dropping reveal command with bad choices")
		return nil
	}

	if err := cc.service.SubmitReveal(ctx, participant, c, choices); err != nil {
		return cc.settle(err, log.Fields{"participant": cmd.Participant, "commitment": cmd.Commitment}, "reveal")
	}
	return nil
}

// settle swallows caller-correctable rejections and returns everything else
func (cc *CommandConsumer) settle(err error, fields log.Fields, command string) error {
	if isRejection(err) {
		log.WithFields(fields).WithError(err).Warn("Lottery rejected " + command + " command")
		return nil
	}
	return fmt.Errorf("failed to process %s command: %w", command, err)
}

func isRejection(err error) bool {
	for _, target := range []error{
		ledger.ErrInactiveRound,
		ledger.ErrInsufficientPayment,
		ledger.ErrInvalidParticipant,
		ledger.ErrPoolOverflow,
		ledger.ErrRevealMismatch,
		services.ErrUnknownCommitment,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func parseIdentity(participant, c string) (common.Address, common.Hash, error) {
	if !common.IsHexAddress(participant) {
		return common.Address{}, common.Hash{}, fmt.Errorf("invalid participant address %q", participant)
	}
	raw := common.FromHex(c)
	if len(raw) != common.HashLength {
		return common.Address{}, common.Hash{}, fmt.Errorf("commitment must be %d bytes, got %d", common.HashLength, len(raw))
	}
	return common.HexToAddress(participant), common.BytesToHash(raw), nil
}

// EnsureCommandStream creates the lottery_commands stream on client
func EnsureCommandStream(client *NATSClient, mapper *EventSubjectMapper) error {
	return client.EnsureStream(CommandStreamName, "Lottery entry and reveal commands", mapper.GetCommandSubjects())
}
