// Package providers contains the payment-provider adapters. Every provider
// implements the same three operations: initiate a charge, authenticate an
// inbound webhook, and normalize its payload. Amounts cross this boundary in
// integer minor currency units regardless of the provider's native unit.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vaughnsterling/payments-api/pkg"
)

// ChargeRequest carries everything an adapter needs to open a checkout with
// its provider. Amount is the deposit, already computed in minor units.
type ChargeRequest struct {
	OrderID       int64
	Amount        int64 // minor units
	Currency      string
	CustomerName  string
	CustomerEmail string
	ServiceID     string
	ServiceName   string
	SuccessURL    string
	CancelURL     string
}

// ChargeResult is the provider's answer: its reference for the charge and the
// URL the customer must be redirected to.
type ChargeResult struct {
	Reference   string
	RedirectURL string
}

// Event is a normalized webhook payload. Raw keeps the verbatim body for audit.
type Event struct {
	Provider      pkg.Provider
	Type          string
	Status        string
	ChargeID      string
	TransactionID string
	Amount        int64 // minor units
	Currency      string
	OrderID       *int64 // resolved from provider metadata; nil when absent
	Raw           []byte
}

// IdempotencyKey is the transaction id, falling back to the charge id.
// Empty when the event carries neither.
func (e Event) IdempotencyKey() string {
	if e.TransactionID != "" {
		return e.TransactionID
	}
	return e.ChargeID
}

// Succeeded reports whether the event is a terminal successful charge/capture.
// Matching is deliberately broad: event-type suffix or a terminal status value.
func (e Event) Succeeded() bool {
	t := strings.ToLower(e.Type)
	if strings.HasSuffix(t, "succeeded") || strings.HasSuffix(t, "completed") || strings.HasSuffix(t, "success") {
		return true
	}
	switch strings.ToLower(e.Status) {
	case "succeeded", "paid", "successful", "success", "completed":
		return true
	}
	return false
}

// PaymentProvider is the canonical contract every adapter follows.
type PaymentProvider interface {
	Name() pkg.Provider

	// CreateCharge initiates payment with the provider. It never records a
	// Payment or marks an order paid; only a verified webhook does that.
	CreateCharge(ctx context.Context, req ChargeRequest) (ChargeResult, error)

	// VerifyWebhook authenticates the raw body (the exact bytes received)
	// against the provider's signature headers. An invalid signature is the
	// expected-failure case and returns (false, nil); errors are reserved for
	// configuration or verification-mechanism failures.
	VerifyWebhook(ctx context.Context, body []byte, headers http.Header) (bool, error)

	// ParseEvent extracts a normalized Event from the verified body.
	ParseEvent(body []byte) (Event, error)
}

// errNotConfigured builds the 500 ConfigurationError for a missing provider setup.
func errNotConfigured(name pkg.Provider, what string) error {
	return pkg.NewAppError(pkg.ErrConfigMissingCode, fmt.Sprintf("%s %s not configured", name, what), nil)
}

// errProviderRejected surfaces the upstream status/message to the operator.
func errProviderRejected(name pkg.Provider, status int, message string) error {
	if message == "" {
		message = "request rejected"
	}
	return pkg.NewAppError(pkg.ErrProviderCode,
		fmt.Sprintf("%s: %s", name, message),
		fmt.Errorf("upstream status %d", status))
}

// minorUnitsFromDecimal converts a major-unit decimal string (e.g. "80.00")
// to integer minor units without going through floating point.
func minorUnitsFromDecimal(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty amount")
	}
	whole, frac, _ := strings.Cut(value, ".")
	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	switch len(frac) {
	case 0:
		return major * 100, nil
	case 1:
		frac += "0"
	case 2:
		// as-is
	default:
		frac = frac[:2] // ignore sub-cent precision
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if major < 0 {
		return major*100 - cents, nil
	}
	return major*100 + cents, nil
}
