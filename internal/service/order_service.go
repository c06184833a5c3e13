package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/handcraftedhaven/storefront/internal/events"
	"github.com/handcraftedhaven/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidInput wraps every validation failure raised before the store is
// touched.
var ErrInvalidInput = errors.New("invalid input")

const defaultPublishTimeout = 5 * time.Second

type PlaceOrderInput struct {
	PaymentMethod   string
	DeliveryAddress string
	Shipping        decimal.Decimal
	Items           []domain.OrderItem
}

type OrderService struct {
	repo           repository.OrderRepository
	publisher      events.Publisher
	logger         *zap.Logger
	now            func() time.Time
	publishTimeout time.Duration
}

func NewOrderService(repo repository.OrderRepository, publisher events.Publisher, logger *zap.Logger) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		repo:           repo,
		publisher:      publisher,
		logger:         logger.Named("orders"),
		now:            time.Now,
		publishTimeout: defaultPublishTimeout,
	}
}

// PlaceOrder records a Pending order whose total is the item subtotal plus
// shipping.
func (s *OrderService) PlaceOrder(ctx context.Context, buyerID uuid.UUID, in PlaceOrderInput) (*domain.Order, error) {
	if buyerID == uuid.Nil {
		return nil, fmt.Errorf("%w: buyer id is required", ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}
	if in.Shipping.IsNegative() {
		return nil, fmt.Errorf("%w: shipping cannot be negative", ErrInvalidInput)
	}

	total := in.Shipping
	for i, it := range in.Items {
		if strings.TrimSpace(it.ListingName) == "" {
			return nil, fmt.Errorf("%w: item %d has no listing name", ErrInvalidInput, i)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidInput, i)
		}
		if it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item %d price cannot be negative", ErrInvalidInput, i)
		}
		total = total.Add(it.Subtotal())
	}

	order, err := s.repo.PlaceOrder(ctx, domain.NewOrder{
		BuyerID:         buyerID,
		TotalAmount:     total,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   in.PaymentMethod,
		DeliveryAddress: in.DeliveryAddress,
	}, in.Items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.Stringer("order_id", order.ID),
		zap.Stringer("buyer_id", buyerID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(in.Items)))
	return order, nil
}

// Advance applies action to the order's current status. The store update is
// conditional on that status, so a concurrent change surfaces as
// repository.ErrStatusConflict instead of being overwritten.
func (s *OrderService) Advance(ctx context.Context, orderID uuid.UUID, action domain.OrderAction) (*domain.Order, error) {
	current, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("order %s is already %s: %w", orderID, current.Status, domain.ErrIllegalTransition)
	}

	next, err := current.Status.Next(action)
	if err != nil {
		return nil, fmt.Errorf("%s from %s: %w", action, current.Status, err)
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, orderID, current.Status, next)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.Stringer("order_id", orderID),
		zap.Stringer("from", current.Status),
		zap.Stringer("to", next),
		zap.String("action", string(action)))

	s.publish(ctx, events.OrderStatusChanged{
		OrderID:    updated.ID,
		BuyerID:    updated.BuyerID,
		From:       current.Status,
		To:         next,
		Action:     action,
		OccurredAt: s.now().UTC(),
	})
	return updated, nil
}

// ConfirmDelivery is the buyer-side transition from Shipped to Delivered.
func (s *OrderService) ConfirmDelivery(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.Advance(ctx, orderID, domain.ActionConfirmDelivery)
}

func (s *OrderService) publish(ctx context.Context, event events.OrderStatusChanged) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Warn("failed to publish order status change",
			zap.Stringer("order_id", event.OrderID),
			zap.Error(err))
	}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.OrderDetail, error) {
	return s.repo.GetOrderDetail(ctx, orderID)
}

func (s *OrderService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	return s.repo.ListOrdersByBuyer(ctx, buyerID)
}

// ListRecent returns the newest orders across all buyers for the dashboard.
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]*domain.OrderDetail, error) {
	return s.repo.ListOrderDetails(ctx, limit)
}
