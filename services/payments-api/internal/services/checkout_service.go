package services

import (
	"context"
	"strings"

	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/models"
	"github.com/vaughnsterling/payments-api/pkg/repositories"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/catalog"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/providers"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/views"
	"go.uber.org/zap"
)

type CheckoutService interface {
	// CreateCharge inserts a pending order, initiates the deposit charge with
	// the provider, and best-effort attaches the provider reference.
	CreateCharge(ctx context.Context, traceID string, provider providers.PaymentProvider, req views.CreateChargeRequest) (views.CreateChargeResponse, error)
}

type CheckoutServiceImpl struct {
	logger    *zap.Logger
	orderRepo repositories.OrderRepository
}

func NewCheckoutService(logger *zap.Logger, orderRepo repositories.OrderRepository) CheckoutService {
	return &CheckoutServiceImpl{
		logger:    logger,
		orderRepo: orderRepo,
	}
}

func (s *CheckoutServiceImpl) CreateCharge(ctx context.Context, traceID string, provider providers.PaymentProvider, req views.CreateChargeRequest) (views.CreateChargeResponse, error) {
	service, ok := catalog.Lookup(req.ServiceID)
	if !ok {
		return views.CreateChargeResponse{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid service ID", nil)
	}

	totalAmount := service.TotalMinorUnits()
	depositAmount := catalog.DepositMinorUnits(totalAmount)

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}
	order, err := s.orderRepo.Create(ctx, models.Order{
		CustomerName:  req.CustomerName,
		CustomerEmail: lowercaseEmail(req.CustomerEmail),
		ServiceID:     service.ID,
		ServiceName:   service.Name,
		TotalAmount:   totalAmount,
		DepositAmount: depositAmount,
		Currency:      service.Currency,
		Provider:      provider.Name(),
		Notes:         notes,
	})
	if err != nil {
		return views.CreateChargeResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	result, err := provider.CreateCharge(ctx, providers.ChargeRequest{
		OrderID:       order.ID,
		Amount:        depositAmount,
		Currency:      service.Currency,
		CustomerName:  req.CustomerName,
		CustomerEmail: lowercaseEmail(req.CustomerEmail),
		ServiceID:     service.ID,
		ServiceName:   service.Name,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
	})
	if err != nil {
		// The order stays pending with no reference. Retrying charge creation
		// makes a new order; duplicates are an accepted trade-off.
		return views.CreateChargeResponse{}, err
	}

	// Best-effort: the charge already exists upstream, so losing the link only
	// degrades reconciliation by reference. Never roll back the charge.
	if err = s.orderRepo.AttachProviderReference(ctx, order.ID, result.Reference); err != nil {
		s.logger.Warn("failed to attach provider reference",
			zap.String(pkg.TraceId, traceID),
			zap.Int64("order_id", order.ID),
			zap.String("provider", string(provider.Name())),
			zap.String("reference", result.Reference),
			zap.Error(err))
	}

	s.logger.Info("charge created",
		zap.String(pkg.TraceId, traceID),
		zap.Int64("order_id", order.ID),
		zap.String("provider", string(provider.Name())),
		zap.String("reference", result.Reference),
		zap.Int64("deposit_amount", depositAmount))

	return views.CreateChargeResponse{
		Success:       true,
		OrderID:       order.ID,
		ChargeID:      result.Reference,
		CheckoutURL:   result.RedirectURL,
		DepositAmount: float64(depositAmount) / 100,
		TotalAmount:   float64(totalAmount) / 100,
		Currency:      service.Currency,
	}, nil
}

func lowercaseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
