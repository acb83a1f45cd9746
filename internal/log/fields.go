package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldSubscriptionID   = "subscription_id"
	FieldSubscriptionName = "name"
	FieldPaymentID        = "payment_id"
	FieldAmountCents      = "amount_cents"
	FieldCurrency         = "currency"
	FieldBillingCycle     = "billing_cycle"
	FieldNextPaymentDate  = "next_payment_date"
	FieldPaymentDate      = "payment_date"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentBackend   = "backend"
	ComponentReport    = "report"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpRecord   = "record"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
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

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
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

// WithSubscription adds subscription-related fields
func (f LogFields) WithSubscription(id int64, name string, amountCents int64, cycle string) LogFields {
	f[FieldSubscriptionID] = id
	f[FieldSubscriptionName] = name
	f[FieldAmountCents] = amountCents
	f[FieldBillingCycle] = cycle
	return f
}

// WithPayment adds payment-related fields
func (f LogFields) WithPayment(id, subscriptionID, amountCents int64, paymentDate string) LogFields {
	f[FieldPaymentID] = id
	f[FieldSubscriptionID] = subscriptionID
	f[FieldAmountCents] = amountCents
	f[FieldPaymentDate] = paymentDate
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
