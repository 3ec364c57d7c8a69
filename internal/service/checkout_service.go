package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"aroma-shop/internal/metrics"
	"aroma-shop/internal/model"
	"aroma-shop/internal/payment"
	"aroma-shop/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	addressRepo repository.AddressRepository
	productRepo repository.ProductRepository
	provider    payment.Provider
	currency    string
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewCheckoutService creates a new checkout service. Orders are priced in currency.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	addressRepo repository.AddressRepository,
	productRepo repository.ProductRepository,
	provider payment.Provider,
	currency string,
	m *metrics.Metrics,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		addressRepo: addressRepo,
		productRepo: productRepo,
		provider:    provider,
		currency:    currency,
		metrics:     m,
		logger:      logger.With().Str("service", "checkout").Logger(),
	}
}

// Checkout creates (or, with an idempotency key, reuses) a pending order for the cart and
// a payment intent for its total.
func (s *checkoutService) Checkout(ctx context.Context, userID int64, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	resp, reused, err := s.checkout(ctx, userID, req)
	switch {
	case err != nil:
		s.metrics.Checkout(checkoutOutcome(err))
	case reused:
		s.metrics.Checkout("reused")
	default:
		s.metrics.Checkout("created")
	}
	return resp, err
}

func (s *checkoutService) checkout(ctx context.Context, userID int64, req *model.CheckoutRequest) (*model.CheckoutResponse, bool, error) {
	if req == nil {
		return nil, false, model.ErrValidation.WithMessage("request body is required")
	}
	if err := validateRequest(req); err != nil {
		return nil, false, err
	}

	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, false, err
	}

	address, err := s.addressRepo.GetByID(ctx, req.AddressID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load address: %w", err)
	}
	if err := checkOwner(address, userID); err != nil {
		return nil, false, err
	}

	order, reused, err := s.placeOrder(ctx, userID, req.AddressID, items, req.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if order.Status != model.OrderStatusPending {
		s.logger.Info().
			Int64("order_id", order.ID).
			Str("status", string(order.Status)).
			Msg("idempotent checkout replayed for settled order")
		return nil, reused, model.ErrOrderNotPayable
	}

	resp, err := s.ensurePayment(ctx, order)
	if err != nil {
		s.logger.Warn().Err(err).Int64("order_id", order.ID).Msg("payment intent creation failed")
		if req.IdempotencyKey == "" {
			s.cancelOrder(ctx, order.ID)
		}
		return nil, reused, err
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("payment_id", resp.PaymentID).
		Str("provider_payment_id", resp.ProviderPaymentID).
		Bool("reused", reused).
		Msg("checkout completed")

	return resp, reused, nil
}

// mergeItems validates quantities and sums duplicate product lines, ordered by product id.
// A product's total quantity may not exceed model.MaxItemQuantity.
func mergeItems(items []model.OrderItemRequest) ([]model.OrderItemRequest, error) {
	quantities := make(map[int64]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, model.ErrInvalidQuantity
		}
		// Both operands are capped, so the sum cannot overflow.
		if item.Quantity > model.MaxItemQuantity || quantities[item.ProductID]+item.Quantity > model.MaxItemQuantity {
			return nil, model.ErrInvalidQuantity.WithMessage(
				fmt.Sprintf("Quantity of product %d must be at most %d", item.ProductID, model.MaxItemQuantity))
		}
		quantities[item.ProductID] += item.Quantity
	}

	merged := make([]model.OrderItemRequest, 0, len(quantities))
	for id, qty := range quantities {
		merged = append(merged, model.OrderItemRequest{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}

// placeOrder returns the order for this checkout and whether it already existed.
func (s *checkoutService) placeOrder(ctx context.Context, userID, addressID int64, items []model.OrderItemRequest, key string) (*model.Order, bool, error) {
	if key != "" {
		existing, err := s.orderRepo.GetByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return nil, false, fmt.Errorf("failed to look up idempotent order: %w", err)
		}
		if existing != nil {
			return existing, true, nil
		}
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load products: %w", err)
	}
	prices := make(map[int64]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	orderItems := make([]model.OrderItem, len(items))
	total := decimal.Zero
	for i, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			s.logger.Warn().Int64("product_id", item.ProductID).Msg("checkout references unknown product")
			return nil, false, model.ErrProductNotFound.WithMessage(fmt.Sprintf("Product %d not found", item.ProductID))
		}
		orderItems[i] = model.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     price,
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	order := &model.Order{
		UserID:      userID,
		AddressID:   addressID,
		TotalAmount: total,
		Currency:    s.currency,
		Status:      model.OrderStatusPending,
	}
	if key != "" {
		order.IdempotencyKey = &key
	}

	created, err := s.insertOrder(ctx, order, orderItems)
	if err != nil {
		return nil, false, err
	}
	if created {
		return order, false, nil
	}

	// A concurrent request with the same key committed first.
	winner, err := s.orderRepo.GetByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up idempotent order: %w", err)
	}
	if winner == nil {
		return nil, false, fmt.Errorf("idempotent order for key %q vanished", key)
	}
	return winner, true, nil
}

// insertOrder writes the order and its items in one transaction. It returns false when the
// idempotency key is already taken.
func (s *checkoutService) insertOrder(ctx context.Context, order *model.Order, items []model.OrderItem) (_ bool, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to create order: %w", err)
	}
	defer func() { rollback(ctx, tx, err, s.logger) }()

	created, err := s.orderRepo.CreateOrder(ctx, tx, order)
	if err != nil {
		return false, fmt.Errorf("failed to create order: %w", err)
	}
	if !created {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return false, nil
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return false, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = commit(ctx, tx); err != nil {
		return false, err
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", order.UserID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Int("item_count", len(items)).
		Msg("order created")

	return true, nil
}

// ensurePayment returns the order's open payment, creating the provider intent and the
// local payment row when none exists yet.
func (s *checkoutService) ensurePayment(ctx context.Context, order *model.Order) (*model.CheckoutResponse, error) {
	existing, err := s.paymentRepo.GetLatestByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up order payment: %w", err)
	}
	if existing != nil && existing.Status == model.PaymentStatusCreated {
		intent, err := s.provider.GetIntent(ctx, existing.ProviderPaymentID)
		if err != nil {
			return nil, err
		}
		return checkoutResponse(order, existing, intent.ClientSecret), nil
	}

	intent, err := s.provider.CreateIntent(ctx, payment.IntentRequest{
		OrderID:        order.ID,
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		IdempotencyKey: fmt.Sprintf("checkout-order-%d", order.ID),
	})
	if err != nil {
		return nil, err
	}

	p, err := s.recordPayment(ctx, order, intent)
	if err != nil {
		return nil, err
	}
	return checkoutResponse(order, p, intent.ClientSecret), nil
}

func (s *checkoutService) recordPayment(ctx context.Context, order *model.Order, intent *payment.Intent) (_ *model.Payment, err error) {
	p := &model.Payment{
		OrderID:           order.ID,
		Provider:          s.provider.Name(),
		ProviderPaymentID: intent.ID,
		Amount:            order.TotalAmount,
		Currency:          order.Currency,
		Status:            model.PaymentStatusCreated,
	}

	tx, err := s.paymentRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	defer func() { rollback(ctx, tx, err, s.logger) }()

	inserted, err := s.paymentRepo.Create(ctx, tx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if !inserted {
		p, err = s.paymentRepo.GetByProviderID(ctx, tx, p.Provider, p.ProviderPaymentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load recorded payment: %w", err)
		}
		if p == nil {
			err = fmt.Errorf("payment %s conflicted but was not found", intent.ID)
			return nil, err
		}
	}

	if err = commit(ctx, tx); err != nil {
		return nil, err
	}
	return p, nil
}

// cancelOrder retires a pending order whose payment could not be set up, so that no
// pending order without a payment is left behind.
func (s *checkoutService) cancelOrder(ctx context.Context, orderID int64) {
	err := s.transitionOrder(context.WithoutCancel(ctx), orderID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to cancel order after payment failure")
		return
	}
	s.logger.Info().Int64("order_id", orderID).Msg("order cancelled after payment failure")
}

func (s *checkoutService) transitionOrder(ctx context.Context, orderID int64) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { rollback(ctx, tx, err, s.logger) }()

	if _, err = s.orderRepo.TransitionStatus(ctx, tx, orderID, model.OrderStatusCancelled, model.OrderStatusPending); err != nil {
		return err
	}
	return commit(ctx, tx)
}

func checkoutResponse(order *model.Order, p *model.Payment, clientSecret string) *model.CheckoutResponse {
	return &model.CheckoutResponse{
		OrderID:           order.ID,
		PaymentID:         p.ID,
		Provider:          p.Provider,
		ProviderPaymentID: p.ProviderPaymentID,
		ClientSecret:      clientSecret,
		Amount:            order.TotalAmount,
		Currency:          order.Currency,
		Status:            p.Status,
	}
}

func checkoutOutcome(err error) string {
	var de *model.DomainError
	if !errors.As(err, &de) {
		return "error"
	}
	switch de.Kind {
	case model.KindUnavailable:
		return "provider_unavailable"
	case model.KindBadGateway:
		return "provider_rejected"
	default:
		return "rejected"
	}
}
