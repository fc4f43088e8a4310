package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vaughnsterling/payments-api/pkg/database"
	"github.com/vaughnsterling/payments-api/pkg/models"
)

// PaymentFilter narrows admin listings. Zero values mean "no filter".
type PaymentFilter struct {
	ID            string
	ChargeID      string
	TransactionID string
	Limit         int
}

type PaymentRepository interface {
	// Insert records a payment. Returns false when a row with the same
	// idempotency key already exists (ON CONFLICT DO NOTHING): the unique
	// constraint, not this check, is what makes duplicate deliveries safe.
	Insert(ctx context.Context, payment models.Payment) (bool, error)
	ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error)
}

type PaymentRepositoryImpl struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) PaymentRepository {
	return &PaymentRepositoryImpl{db: db}
}

const paymentColumns = `id, order_id, provider, provider_charge_id, provider_transaction_id,
       idempotency_key, amount, currency, status, raw, created_at`

func (p PaymentRepositoryImpl) Insert(ctx context.Context, payment models.Payment) (bool, error) {
	tag, err := p.db.Exec(ctx, `
						INSERT INTO payments (id, order_id, provider, provider_charge_id, provider_transaction_id,
						                      idempotency_key, amount, currency, status, raw, created_at)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
						ON CONFLICT (idempotency_key) DO NOTHING`,
		payment.ID,
		payment.OrderID,
		payment.Provider,
		payment.ProviderChargeID,
		payment.ProviderTransactionID,
		payment.IdempotencyKey,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.Raw,
		time.Now(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p PaymentRepositoryImpl) ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("idempotency key cannot be empty")
	}
	var exists bool
	err := p.db.QueryRow(ctx, `
							SELECT EXISTS(SELECT 1 FROM payments WHERE idempotency_key = $1)`,
		key,
	).Scan(&exists)
	return exists, err
}

func (p PaymentRepositoryImpl) List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case filter.ID != "":
		rows, err = p.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, filter.ID)
	case filter.ChargeID != "":
		rows, err = p.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE provider_charge_id = $1 LIMIT $2`,
			filter.ChargeID, limit)
	case filter.TransactionID != "":
		rows, err = p.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE provider_transaction_id = $1 LIMIT $2`,
			filter.TransactionID, limit)
	default:
		rows, err = p.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var payment models.Payment
		if err = rows.Scan(
			&payment.ID,
			&payment.OrderID,
			&payment.Provider,
			&payment.ProviderChargeID,
			&payment.ProviderTransactionID,
			&payment.IdempotencyKey,
			&payment.Amount,
			&payment.Currency,
			&payment.Status,
			&payment.Raw,
			&payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}
