package common

const (
	InvoiceStatePending = "pending"
	InvoiceStatePaid    = "paid"
	InvoiceStateExpired = "expired"
	InvoiceStateFailed  = "failed"

	TransactionStatusPaid    = "paid"
	TransactionStatusPending = "pending"
	TransactionStatusFailed  = "failed"

	// Live-update channel message types, kept in the wire format
	// the dashboard expects.
	EventTypeConnectionSuccess = "CONNECTION_SUCCESS"
	EventTypePaymentReceived   = "PAYMENT_RECEIVED"
	EventTypeInvoiceExpired    = "INVOICE_EXPIRED"
)
