package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldParticipantID = "participant_id"
	FieldChoreID       = "chore_id"
	FieldChoreName     = "chore_name"
	FieldFrequency     = "frequency"
	FieldExpenseID     = "expense_id"
	FieldExpenseTitle  = "expense_title"
	FieldAmount        = "amount"
	FieldCategory      = "category"
	FieldEventID       = "event_id"
	FieldItemID        = "item_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentHousehold = "household"
	ComponentLedger    = "ledger"
	ComponentSchedule  = "schedule"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCalendar  = "calendar"
	ComponentNotify    = "notify"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpAssign   = "assign"
	OpComplete = "complete"
	OpSync     = "sync"
	OpRemind   = "remind"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithChore adds chore identity fields.
func (f LogFields) WithChore(id, name, frequency string) LogFields {
	f[FieldChoreID] = id
	f[FieldChoreName] = name
	f[FieldFrequency] = frequency
	return f
}

// WithExpense adds expense identity fields. amount is the decimal string.
func (f LogFields) WithExpense(id, title, amount, category string) LogFields {
	f[FieldExpenseID] = id
	f[FieldExpenseTitle] = title
	f[FieldAmount] = amount
	f[FieldCategory] = category
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
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
