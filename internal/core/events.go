package core

// EventKind names a non-fatal condition observed while moving money.
type EventKind string

const (
	EventCreditUtilization EventKind = "credit_utilization"
	EventOverdraft         EventKind = "overdraft"
	EventInvalidPayoff     EventKind = "invalid_payoff"
	EventPayoff            EventKind = "payoff"
)

// UtilizationWarnPerMille is the debt/limit ratio, in tenths of a percent,
// above which a credit account emits a utilization warning.
const UtilizationWarnPerMille = 200

// Event is an observability record. Events never change balances and never
// stop a simulation.
type Event struct {
	Kind EventKind
	// Date is the simulated day, stamped by the engine's sink.
	Date    Date
	Account string
	Balance Money
	// Utilization is |balance|/limit in tenths of a percent, set for
	// credit utilization events.
	Utilization int64
	Message     string
}

// Warning reports whether the event is a warning rather than informational.
func (e Event) Warning() bool {
	return e.Kind != EventPayoff
}

// EventSink receives events as they happen. A nil EventSink discards them.
type EventSink interface {
	Record(Event)
}

// EventLog is an EventSink that keeps events in arrival order.
type EventLog struct {
	events []Event
}

func (l *EventLog) Record(e Event) { l.events = append(l.events, e) }

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []Event {
	return append([]Event(nil), l.events...)
}

func emit(sink EventSink, e Event) {
	if sink != nil {
		sink.Record(e)
	}
}
