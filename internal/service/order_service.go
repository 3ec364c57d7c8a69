package service

import (
	"context"
	"fmt"

	"aroma-shop/internal/model"
	"aroma-shop/internal/repository"

	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// List returns a page of the user's orders, newest first.
func (s *orderService) List(ctx context.Context, userID int64, limit, offset int) (*model.OrderListResponse, error) {
	limit, offset = normalizePage(limit, offset)

	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &model.OrderListResponse{
		Orders: orders,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// Get retrieves an order by its ID with all items and the latest payment.
func (s *orderService) Get(ctx context.Context, userID, id int64) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Int64("order_id", id).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	if order.UserID != userID {
		s.logger.Warn().Int64("order_id", id).Int64("user_id", userID).Msg("order access by non-owner")
		return nil, model.ErrForbidden
	}

	payment, err := s.paymentRepo.GetLatestByOrderID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order payment")
		return nil, fmt.Errorf("failed to get order payment: %w", err)
	}

	return &model.OrderResponse{
		Order:   *order,
		Items:   items,
		Payment: payment,
	}, nil
}
