package services

import (
	"context"
	"net/http"
	"sync"

	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/models"
	"github.com/vaughnsterling/payments-api/pkg/repositories"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/providers"
)

// In-memory doubles for the storage and provider boundaries.

type fakeOrderRepo struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]*models.Order
	createErr error
	attachErr error
	markErr   error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, order models.Order) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.Order{}, f.createErr
	}
	f.nextID++
	order.ID = f.nextID
	order.Status = pkg.OrderStatusPending
	stored := order
	f.orders[order.ID] = &stored
	return order, nil
}

func (f *fakeOrderRepo) AttachProviderReference(_ context.Context, orderID int64, reference string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		return f.attachErr
	}
	if order, ok := f.orders[orderID]; ok && order.ProviderReference == nil {
		ref := reference
		order.ProviderReference = &ref
	}
	return nil
}

func (f *fakeOrderRepo) MarkPaidByID(_ context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	if order, ok := f.orders[orderID]; ok {
		order.Status = pkg.OrderStatusPaid
	}
	return nil
}

func (f *fakeOrderRepo) MarkPaidByReference(_ context.Context, reference string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	for _, order := range f.orders {
		if order.ProviderReference != nil && *order.ProviderReference == reference {
			order.Status = pkg.OrderStatusPaid
		}
	}
	return nil
}

func (f *fakeOrderRepo) FindByProviderReference(_ context.Context, reference string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.ProviderReference != nil && *order.ProviderReference == reference {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) List(_ context.Context, _ repositories.OrderFilter) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []models.Order
	for _, order := range f.orders {
		orders = append(orders, *order)
	}
	return orders, nil
}

func (f *fakeOrderRepo) get(id int64) models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.orders[id]
}

type fakePaymentRepo struct {
	mu        sync.Mutex
	payments  map[string]models.Payment
	insertErr error
	existsErr error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]models.Payment)}
}

func (f *fakePaymentRepo) Insert(_ context.Context, payment models.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if _, exists := f.payments[payment.IdempotencyKey]; exists {
		return false, nil
	}
	f.payments[payment.IdempotencyKey] = payment
	return true, nil
}

func (f *fakePaymentRepo) ExistsByIdempotencyKey(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, exists := f.payments[key]
	return exists, nil
}

func (f *fakePaymentRepo) List(_ context.Context, _ repositories.PaymentFilter) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var payments []models.Payment
	for _, payment := range f.payments {
		payments = append(payments, payment)
	}
	return payments, nil
}

func (f *fakePaymentRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payments)
}

type alertRecord struct {
	level  string
	action string
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []alertRecord
}

func (f *fakeNotifier) Alert(_ context.Context, level, action string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alertRecord{level: level, action: action})
}

func (f *fakeNotifier) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var actions []string
	for _, a := range f.alerts {
		actions = append(actions, a.action)
	}
	return actions
}

type fakeProvider struct {
	name         pkg.Provider
	verifyOK     bool
	verifyErr    error
	verifyCalls  int
	event        providers.Event
	parseErr     error
	chargeResult providers.ChargeResult
	chargeErr    error
	chargeCalls  int
	lastCharge   providers.ChargeRequest
}

func (f *fakeProvider) Name() pkg.Provider {
	if f.name == "" {
		return pkg.ProviderYoco
	}
	return f.name
}

func (f *fakeProvider) CreateCharge(_ context.Context, req providers.ChargeRequest) (providers.ChargeResult, error) {
	f.chargeCalls++
	f.lastCharge = req
	if f.chargeErr != nil {
		return providers.ChargeResult{}, f.chargeErr
	}
	return f.chargeResult, nil
}

func (f *fakeProvider) VerifyWebhook(_ context.Context, _ []byte, _ http.Header) (bool, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	return f.verifyOK, nil
}

func (f *fakeProvider) ParseEvent(body []byte) (providers.Event, error) {
	if f.parseErr != nil {
		return providers.Event{}, f.parseErr
	}
	event := f.event
	if event.Provider == "" {
		event.Provider = f.Name()
	}
	event.Raw = body
	return event, nil
}
