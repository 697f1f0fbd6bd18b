package observability

// Metric name prefixes
const (
	MetricPrefix = "fhelotto"
)

// Metric names
const (
	// Lottery metrics
	EntriesTotal   = MetricPrefix + ".lottery.entries_total"
	TicketsTotal   = MetricPrefix + ".lottery.tickets_total"
	PaymentsTotal  = MetricPrefix + ".lottery.payments_total"
	DrawsTotal     = MetricPrefix + ".lottery.draws_total"
	PrizePoolGauge = MetricPrefix + ".lottery.prize_pool"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Journal metrics
	JournalWritesTotal   = MetricPrefix + ".journal.writes_total"
	JournalWriteDuration = MetricPrefix + ".journal.write_duration"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelSubject   = "subject"
	LabelOperation = "operation"
	LabelStatus    = "status"
)

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"
)
