package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vaughnsterling/payments-api/pkg"
)

// Payment maps to table `payments`. Rows are insert-only: created by webhook
// reconciliation, never updated or deleted.
type Payment struct {
	ID                    uuid.UUID
	OrderID               *int64 // nil when order lookup failed; kept for audit
	Provider              pkg.Provider
	ProviderChargeID      string
	ProviderTransactionID string
	IdempotencyKey        string // transaction id, else charge id
	Amount                int64  // minor currency units
	Currency              string
	Status                pkg.PaymentStatus
	Raw                   []byte // verbatim webhook payload
	CreatedAt             time.Time
}
