package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldQuery        = "query"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldUserAgent    = "user_agent"
	FieldReferer      = "referer"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldYear         = "year"
	FieldYears        = "years"
	FieldMonth        = "month"
	FieldScenario     = "scenario"
	FieldProjectionID = "projection_id"
	FieldLoan         = "loan"
	FieldCalculator   = "calculator"
	FieldPayments     = "payments"
	FieldBackend      = "backend"
	FieldKey          = "key"
	FieldQueue        = "queue"
	FieldSheet        = "sheet"
	FieldRows         = "rows"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentCLI        = "cli"
	ComponentHTTP       = "http"
	ComponentProjection = "projection"
	ComponentTaxData    = "taxdata"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
	ComponentCache      = "cache"
	ComponentSecurity   = "security"
	ComponentRateLimit  = "rate_limit"
	ComponentTrace      = "trace"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpRead     = "read"
	OpAmortize = "amortize"
	OpProject  = "project"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpExport   = "export"
	OpMigrate  = "migrate"
	OpValidate = "validate"
	OpParse    = "parse"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
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

// WithProjection adds the fields that identify one projection run.
func (f LogFields) WithProjection(id, scenario string, years int) LogFields {
	if id != "" {
		f[FieldProjectionID] = id
	}
	f[FieldScenario] = scenario
	f[FieldYears] = years
	return f
}

// WithLoan adds a loan name and the size of its schedule.
func (f LogFields) WithLoan(name string, payments int) LogFields {
	f[FieldLoan] = name
	f[FieldPayments] = payments
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
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
