package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldChannelID   = "channel_id"
	FieldAuthorID    = "author_id"
	FieldMessageID   = "message_id"
	FieldCommand     = "command"
	FieldKind        = "kind"
	FieldAmount      = "amount"
	FieldDescription = "description"
	FieldBalance     = "balance"
	FieldIntent      = "intent"
	FieldConfidence  = "confidence"
	FieldOutcome     = "outcome"
	FieldDuration    = "duration_ms"
	FieldEventID     = "event_id"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBot      = "bot"
	ComponentRouter   = "router"
	ComponentStorage  = "storage"
	ComponentNLU      = "nlu"
	ComponentCache    = "cache"
	ComponentAMQP     = "amqp"
	ComponentKafka    = "kafka"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentSchedule = "schedule"
	ComponentHTTP     = "http"
)

// Operations defines standard operation names
const (
	OpRecord   = "record"
	OpBalance  = "balance"
	OpHistory  = "history"
	OpHelp     = "help"
	OpClassify = "classify"
	OpLoad     = "load"
	OpSave     = "save"
	OpPublish  = "publish"
	OpMirror   = "mirror"
	OpSummary  = "summary"
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

// WithMessage adds the identifiers of an inbound chat message
func (f LogFields) WithMessage(channelID, authorID, messageID string) LogFields {
	f[FieldChannelID] = channelID
	f[FieldAuthorID] = authorID
	f[FieldMessageID] = messageID
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(kind, amount, description string) LogFields {
	f[FieldKind] = kind
	f[FieldAmount] = amount
	f[FieldDescription] = description
	return f
}

// WithIntent adds NLU classification fields
func (f LogFields) WithIntent(intent string, confidence float64) LogFields {
	f[FieldIntent] = intent
	f[FieldConfidence] = confidence
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
