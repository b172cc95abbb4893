package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldRunID       = "run_id"
	FieldHorizon     = "horizon_days"
	FieldStartDate   = "start_date"
	FieldDay         = "day"
	FieldAccount     = "account"
	FieldBalance     = "balance_cents"
	FieldUtilization = "utilization_permille"
	FieldEvent       = "event"
	FieldTransaction = "transaction"
	FieldAmountCents = "amount_cents"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentForecast = "forecast"
	ComponentAccount  = "account"
	ComponentRecords  = "records"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentHTTP     = "http"
	ComponentConfig   = "config"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpParse    = "parse"
	OpSimulate = "simulate"
	OpPublish  = "publish"
	OpMigrate  = "migrate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithAccount adds account balance fields
func (f LogFields) WithAccount(name string, balanceCents int64) LogFields {
	f[FieldAccount] = name
	f[FieldBalance] = balanceCents
	return f
}

// WithRun adds forecast run fields
func (f LogFields) WithRun(runID string, horizon int, start string) LogFields {
	f[FieldRunID] = runID
	f[FieldHorizon] = horizon
	f[FieldStartDate] = start
	return f
}

// ToSlice converts LogFields to a slice for slog, keys sorted so output is stable
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
