package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

// OrderAction is a user or system trigger that moves an order forward.
type OrderAction string

const (
	ActionStartProcessing OrderAction = "start-processing"
	ActionMarkShipped     OrderAction = "mark-shipped"
	ActionConfirmDelivery OrderAction = "confirm-delivery"
)

var (
	ErrIllegalTransition = errors.New("illegal transition of order status")
	ErrUnknownAction     = errors.New("unknown order action")
	ErrUnknownStatus     = errors.New("unknown order status")
)

type transition struct {
	from OrderStatus
	to   OrderStatus
}

var transitions = map[OrderAction]transition{
	ActionStartProcessing: {from: OrderStatusPending, to: OrderStatusProcessing},
	ActionMarkShipped:     {from: OrderStatusProcessing, to: OrderStatusShipped},
	ActionConfirmDelivery: {from: OrderStatusShipped, to: OrderStatusDelivered},
}

// dashboardActions lists what a seller may trigger by hand. Delivery is
// confirmed by the buyer.
var dashboardActions = map[OrderStatus]OrderAction{
	OrderStatusPending:    ActionStartProcessing,
	OrderStatusProcessing: ActionMarkShipped,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return st, nil
	}
	return "", ErrUnknownStatus
}

func ParseOrderAction(s string) (OrderAction, error) {
	a := OrderAction(s)
	if _, ok := transitions[a]; !ok {
		return "", ErrUnknownAction
	}
	return a, nil
}

// Next returns the status reached by applying action to s.
func (s OrderStatus) Next(action OrderAction) (OrderStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return "", ErrUnknownAction
	}
	if t.from != s {
		return "", ErrIllegalTransition
	}
	return t.to, nil
}

// DashboardAction reports the single manual action available from s, if any.
func (s OrderStatus) DashboardAction() (OrderAction, bool) {
	a, ok := dashboardActions[s]
	return a, ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

func (s OrderStatus) String() string {
	return string(s)
}

func (a OrderAction) Label() string {
	switch a {
	case ActionStartProcessing:
		return "Start Processing"
	case ActionMarkShipped:
		return "Mark as Shipped"
	case ActionConfirmDelivery:
		return "Confirm Delivery"
	}
	return string(a)
}

type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ListingName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              uuid.UUID
	BuyerID         uuid.UUID
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	PaymentMethod   string
	DeliveryAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrder is the checkout payload for an order header.
type NewOrder struct {
	BuyerID         uuid.UUID
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	PaymentMethod   string
	DeliveryAddress string
}

// OrderDetail is an order joined with its buyer and lines, as shown on the dashboard.
type OrderDetail struct {
	Order
	CustomerName  string
	CustomerEmail string
	Items         []OrderItem
}

func (d OrderDetail) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range d.Items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// ShippingCost is whatever the stored total carries above the item lines.
func (d OrderDetail) ShippingCost() decimal.Decimal {
	diff := d.TotalAmount.Sub(d.Subtotal())
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}
