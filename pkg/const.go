package pkg

const (
	HeaderTraceId   string = "X-Trace-Id"
	HeaderRequestId string = "X-Request-Id"
)

const (
	TraceId        string = "trace_id"
	RequestId      string = "request_id"
	IdempotencyKey string = "idempotency_key"
)

// OrderStatus is monotonic: pending -> paid, never back.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
)

// Provider identifies a payment provider integration.
type Provider string

const (
	ProviderYoco     Provider = "yoco"
	ProviderPaystack Provider = "paystack"
	ProviderPaypal   Provider = "paypal"
)
