package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/database"
	"github.com/vaughnsterling/payments-api/pkg/models"
)

// OrderFilter narrows admin listings. Zero values mean "no filter".
type OrderFilter struct {
	ID    int64
	Email string
	Limit int
}

type OrderRepository interface {
	// Create inserts a pending order and returns it with server-assigned fields.
	Create(ctx context.Context, order models.Order) (models.Order, error)
	// AttachProviderReference records the provider's charge/session id on the order.
	// Best-effort from the caller's perspective: the charge already exists upstream.
	AttachProviderReference(ctx context.Context, orderID int64, reference string) error
	// MarkPaidByID flips status to paid. Paid-on-paid is a no-op, not an error.
	MarkPaidByID(ctx context.Context, orderID int64) error
	// MarkPaidByReference flips status to paid for the order holding the provider reference.
	MarkPaidByReference(ctx context.Context, reference string) error
	FindByProviderReference(ctx context.Context, reference string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
}

type OrderRepositoryImpl struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

const orderColumns = `id, customer_name, customer_email, service_id, service_name, total_amount,
       deposit_amount, currency, status, provider, provider_reference, notes, created_at, updated_at`

func (o OrderRepositoryImpl) Create(ctx context.Context, order models.Order) (models.Order, error) {
	now := time.Now()
	err := o.db.QueryRow(ctx, `
						INSERT INTO orders (customer_name, customer_email, service_id, service_name,
						                    total_amount, deposit_amount, currency, status, provider, notes,
						                    created_at, updated_at)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
						RETURNING id, created_at, updated_at`,
		order.CustomerName,
		order.CustomerEmail,
		order.ServiceID,
		order.ServiceName,
		order.TotalAmount,
		order.DepositAmount,
		order.Currency,
		pkg.OrderStatusPending,
		order.Provider,
		order.Notes,
		now,
		now,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return models.Order{}, err
	}
	order.Status = pkg.OrderStatusPending
	return order, nil
}

func (o OrderRepositoryImpl) AttachProviderReference(ctx context.Context, orderID int64, reference string) error {
	_, err := o.db.Exec(ctx, `
						UPDATE orders SET provider_reference = $1, updated_at = $2
						WHERE id = $3 AND provider_reference IS NULL`,
		reference, time.Now(), orderID)
	return err
}

func (o OrderRepositoryImpl) MarkPaidByID(ctx context.Context, orderID int64) error {
	_, err := o.db.Exec(ctx, `
						UPDATE orders SET status = $1, updated_at = $2
						WHERE id = $3 AND status <> $1`,
		pkg.OrderStatusPaid, time.Now(), orderID)
	return err
}

func (o OrderRepositoryImpl) MarkPaidByReference(ctx context.Context, reference string) error {
	_, err := o.db.Exec(ctx, `
						UPDATE orders SET status = $1, updated_at = $2
						WHERE provider_reference = $3 AND status <> $1`,
		pkg.OrderStatusPaid, time.Now(), reference)
	return err
}

func (o OrderRepositoryImpl) FindByProviderReference(ctx context.Context, reference string) (*models.Order, error) {
	row := o.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE provider_reference = $1`, reference)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (o OrderRepositoryImpl) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case filter.ID > 0:
		rows, err = o.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, filter.ID)
	case filter.Email != "":
		rows, err = o.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_email = $1 ORDER BY created_at DESC LIMIT $2`,
			filter.Email, limit)
	default:
		rows, err = o.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.ServiceID,
		&order.ServiceName,
		&order.TotalAmount,
		&order.DepositAmount,
		&order.Currency,
		&order.Status,
		&order.Provider,
		&order.ProviderReference,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	return order, err
}
