package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
)

var ErrUpdateInProgress = errors.New("order update already in progress")

// OrderUpdater persists a status change. OrderService satisfies it.
type OrderUpdater interface {
	Advance(ctx context.Context, orderID uuid.UUID, action domain.OrderAction) (*domain.Order, error)
}

// OrderDetailModel is the state behind the order detail view. Apply shows the
// target status immediately and restores the previous one if the updater
// fails.
type OrderDetailModel struct {
	mu       sync.Mutex
	detail   domain.OrderDetail
	updating bool
	lastErr  error
}

func NewOrderDetailModel(detail *domain.OrderDetail) *OrderDetailModel {
	return &OrderDetailModel{detail: *detail}
}

func (m *OrderDetailModel) Detail() domain.OrderDetail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detail
}

func (m *OrderDetailModel) Status() domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detail.Status
}

func (m *OrderDetailModel) Updating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updating
}

// Err is the failure of the last Apply, nil after a success.
func (m *OrderDetailModel) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Actions lists the manual actions valid for the current status.
func (m *OrderDetailModel) Actions() []domain.OrderAction {
	if a, ok := m.Status().DashboardAction(); ok {
		return []domain.OrderAction{a}
	}
	return nil
}

// StatusNote is shown where no action applies.
func (m *OrderDetailModel) StatusNote() string {
	status := m.Status()
	switch {
	case status.IsTerminal():
		return "Order Completed."
	case status == domain.OrderStatusShipped:
		return "Awaiting customer delivery confirmation."
	}
	return ""
}

func (m *OrderDetailModel) Apply(ctx context.Context, updater OrderUpdater, action domain.OrderAction) error {
	m.mu.Lock()
	if m.updating {
		m.mu.Unlock()
		return ErrUpdateInProgress
	}
	id, previous := m.detail.ID, m.detail.Status
	next, err := previous.Next(action)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	// Delivery is confirmed by the buyer, not from the dashboard.
	if a, ok := previous.DashboardAction(); !ok || a != action {
		m.mu.Unlock()
		return domain.ErrIllegalTransition
	}
	m.detail.Status = next
	m.updating = true
	m.lastErr = nil
	m.mu.Unlock()

	updated, err := updater.Advance(ctx, id, action)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.updating = false
	if err != nil {
		m.detail.Status = previous
		m.lastErr = err
		return err
	}
	m.detail.Status = updated.Status
	m.detail.UpdatedAt = updated.UpdatedAt
	return nil
}

// StatusClass maps a status to the badge style used by the templates.
func StatusClass(s domain.OrderStatus) string {
	switch s {
	case domain.OrderStatusShipped:
		return "status-shipped"
	case domain.OrderStatusProcessing:
		return "status-processing"
	case domain.OrderStatusPending:
		return "status-pending"
	case domain.OrderStatusDelivered:
		return "status-delivered"
	}
	return "status-unknown"
}
