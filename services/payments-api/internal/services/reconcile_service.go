package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/vaughnsterling/payments-api/pkg"
	middleware "github.com/vaughnsterling/payments-api/pkg/middlewares"
	"github.com/vaughnsterling/payments-api/pkg/models"
	"github.com/vaughnsterling/payments-api/pkg/repositories"
	"github.com/vaughnsterling/payments-api/pkg/utils"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/providers"
	"go.uber.org/zap"
)

// Outcome classifies a processed webhook delivery.
type Outcome string

const (
	OutcomeRecorded  Outcome = "recorded"  // new payment row, order paid
	OutcomeDuplicate Outcome = "duplicate" // idempotency key already recorded
	OutcomeIgnored   Outcome = "ignored"   // non-terminal event, acknowledged
	OutcomeDegraded  Outcome = "degraded"  // storage failed after retries; alerted
)

type ReconcileService interface {
	// ProcessWebhook runs the full state machine for one delivery: verify,
	// parse, classify, idempotency check, payment insert, order patch.
	// A returned error means the provider should see a non-200 (bad signature,
	// malformed body, verification-mechanism failure). Internal storage
	// failures degrade to OutcomeDegraded with a nil error: the delivery is
	// acknowledged and the problem surfaced to operators instead.
	ProcessWebhook(ctx context.Context, traceID string, provider providers.PaymentProvider, body []byte, headers http.Header) (Outcome, error)
}

type ReconcileServiceImpl struct {
	logger      *zap.Logger
	orderRepo   repositories.OrderRepository
	paymentRepo repositories.PaymentRepository
	notifier    AlertNotifier
}

func NewReconcileService(logger *zap.Logger, orderRepo repositories.OrderRepository, paymentRepo repositories.PaymentRepository, notifier AlertNotifier) ReconcileService {
	return &ReconcileServiceImpl{
		logger:      logger,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		notifier:    notifier,
	}
}

func (s *ReconcileServiceImpl) ProcessWebhook(ctx context.Context, traceID string, provider providers.PaymentProvider, body []byte, headers http.Header) (Outcome, error) {
	name := string(provider.Name())

	if !json.Valid(body) {
		return "", pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid payload", nil)
	}

	// Authenticate (over the exact bytes received) before any state mutation.
	ok, err := provider.VerifyWebhook(ctx, body, headers)
	if err != nil {
		return "", err // configuration or verification-mechanism failure -> 500
	}
	if !ok {
		middleware.CountWebhookEvent(name, "invalid_signature")
		s.logger.Error("invalid webhook signature", zap.String(pkg.TraceId, traceID), zap.String("provider", name))
		s.notifier.Alert(ctx, "warn", "webhook_invalid_signature", map[string]any{"provider": name})
		return "", pkg.NewAppError(pkg.ErrWebhookSignatureCode, "invalid signature", pkg.ErrInvalidSignature)
	}

	event, err := provider.ParseEvent(body)
	if err != nil {
		return "", pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid payload", err)
	}

	// Non-terminal events are acknowledged so the provider stops retrying.
	if !event.Succeeded() {
		middleware.CountWebhookEvent(name, "ignored")
		s.logger.Info("webhook event ignored",
			zap.String(pkg.TraceId, traceID), zap.String("provider", name), zap.String("type", event.Type))
		return OutcomeIgnored, nil
	}

	key := event.IdempotencyKey()
	if key == "" {
		// No usable identifier: record for audit, dedupe impossible.
		key = "evt_" + uuid.New().String()
		s.logger.Warn("webhook event without transaction or charge id",
			zap.String(pkg.TraceId, traceID), zap.String("provider", name))
	} else {
		// Fast path only. The unique constraint on payments.idempotency_key is
		// what actually makes concurrent duplicates safe.
		exists, err := s.paymentRepo.ExistsByIdempotencyKey(ctx, key)
		if err != nil {
			s.logger.Warn("idempotency lookup failed; relying on unique constraint",
				zap.String(pkg.TraceId, traceID), zap.Error(err))
		} else if exists {
			middleware.CountWebhookEvent(name, "duplicate")
			s.logger.Info("payment already recorded",
				zap.String(pkg.TraceId, traceID), zap.String(pkg.IdempotencyKey, key))
			// A prior delivery may have recorded the payment but crashed
			// before patching the order. Make sure it lands paid.
			s.ensureOrderPaid(ctx, traceID, event)
			return OutcomeDuplicate, nil
		}
	}

	outcome := OutcomeRecorded
	if !s.insertPayment(ctx, traceID, event, key) {
		outcome = OutcomeDegraded
	}
	if !s.markOrderPaid(ctx, traceID, event) {
		outcome = OutcomeDegraded
	}
	middleware.CountWebhookEvent(name, string(outcome))
	return outcome, nil
}

// insertPayment writes the payment row under the bounded retry policy.
// Returns false only when retries were exhausted (alert already raised).
func (s *ReconcileServiceImpl) insertPayment(ctx context.Context, traceID string, event providers.Event, key string) bool {
	payment := models.Payment{
		ID:                    uuid.New(),
		OrderID:               event.OrderID,
		Provider:              event.Provider,
		ProviderChargeID:      event.ChargeID,
		ProviderTransactionID: event.TransactionID,
		IdempotencyKey:        key,
		Amount:                event.Amount,
		Currency:              event.Currency,
		Status:                pkg.PaymentStatusSucceeded,
		Raw:                   event.Raw,
	}

	err := utils.RetryBounded(func() error {
		_, err := s.paymentRepo.Insert(ctx, payment)
		if pkg.IsDuplicate(err) {
			// Concurrent delivery won the insert race; same as already recorded.
			return nil
		}
		return err
	})
	if err != nil {
		s.logger.Error("failed to insert payment after retries",
			zap.String(pkg.TraceId, traceID), zap.String(pkg.IdempotencyKey, key), zap.Error(err))
		s.notifier.Alert(ctx, "error", "insert_payment", map[string]any{
			"provider":        string(event.Provider),
			"idempotency_key": key,
			"error":           err.Error(),
		})
		return false
	}
	return true
}

// markOrderPaid patches the order to paid by id, else by provider reference.
// Returns false only when retries were exhausted (alert already raised).
func (s *ReconcileServiceImpl) markOrderPaid(ctx context.Context, traceID string, event providers.Event) bool {
	patch := func() error {
		if event.OrderID != nil {
			return s.orderRepo.MarkPaidByID(ctx, *event.OrderID)
		}
		if event.ChargeID != "" {
			return s.orderRepo.MarkPaidByReference(ctx, event.ChargeID)
		}
		return nil // unresolvable; payment row stands for audit
	}
	if err := utils.RetryBounded(patch); err != nil {
		s.logger.Error("failed to mark order paid after retries",
			zap.String(pkg.TraceId, traceID), zap.Error(err))
		s.notifier.Alert(ctx, "error", "mark_order_paid", map[string]any{
			"provider":  string(event.Provider),
			"charge_id": event.ChargeID,
			"error":     err.Error(),
		})
		return false
	}
	return true
}

// ensureOrderPaid is the duplicate-delivery path: payment exists, the order
// patch may not have landed. Best effort with the same retry policy.
func (s *ReconcileServiceImpl) ensureOrderPaid(ctx context.Context, traceID string, event providers.Event) {
	_ = s.markOrderPaid(ctx, traceID, event)
}
