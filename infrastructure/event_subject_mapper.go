package infrastructure

import (
	"fmt"

	"fhelotto/domain/events"
)

// Stream and subject names on the bus
const (
	EventStreamName   = "lottery_events"
	CommandStreamName = "lottery_commands"

	SubjectEntryRecorded = "lottery.entries.recorded"
	SubjectWinnerDrawn   = "lottery.winners.drawn"
	SubjectRoundStarted  = "lottery.rounds.started"

	SubjectEnterCommand  = "lottery.commands.enter"
	SubjectRevealCommand = "lottery.commands.reveal"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeEntryRecorded:
		return SubjectEntryRecorded
	case events.EventTypeWinnerDrawn:
		return SubjectWinnerDrawn
	case events.EventTypeRoundStarted:
		return SubjectRoundStarted
	default:
		return fmt.Sprintf("lottery.unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectEntryRecorded:
		return events.EventTypeEntryRecorded
	case SubjectWinnerDrawn:
		return events.EventTypeWinnerDrawn
	case SubjectRoundStarted:
		return events.EventTypeRoundStarted
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectEntryRecorded,
		SubjectWinnerDrawn,
		SubjectRoundStarted,
	}
}

// GetCommandSubjects returns the subjects the command consumer listens on
func (m *EventSubjectMapper) GetCommandSubjects() []string {
	return []string{
		SubjectEnterCommand,
		SubjectRevealCommand,
	}
}
