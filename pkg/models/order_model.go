package models

import (
	"time"

	"github.com/vaughnsterling/payments-api/pkg"
)

// Order maps to table `orders`. Amounts are integer minor currency units.
type Order struct {
	ID                int64
	CustomerName      string
	CustomerEmail     string
	ServiceID         string
	ServiceName       string
	TotalAmount       int64
	DepositAmount     int64
	Currency          string
	Status            pkg.OrderStatus
	Provider          pkg.Provider
	ProviderReference *string // nil until the provider call succeeds; set once
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
