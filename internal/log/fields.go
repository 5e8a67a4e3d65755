package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldMonth      = "month"
	FieldDay        = "day"
	FieldSign       = "sign"
	FieldBackend    = "backend"
	FieldSignCount  = "sign_count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLookup    = "lookup"
	ComponentStorage   = "storage"
	ComponentCatalog   = "catalog"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpLookup   = "lookup"
	OpResolve  = "resolve"
	OpValidate = "validate"
	OpLoad     = "load"
	OpVerify   = "verify"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

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

// WithDate adds the month/day being looked up.
func (f LogFields) WithDate(month, day int) LogFields {
	f[FieldMonth] = month
	f[FieldDay] = day
	return f
}

// WithSign adds the resolved sign name.
func (f LogFields) WithSign(name string) LogFields {
	f[FieldSign] = name
	return f
}

// ToSlice converts LogFields to a key/value slice for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
