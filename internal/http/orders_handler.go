package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/handcraftedhaven/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type OrderManager interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID, in service.PlaceOrderInput) (*domain.Order, error)
	Advance(ctx context.Context, orderID uuid.UUID, action domain.OrderAction) (*domain.Order, error)
	ConfirmDelivery(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.OrderDetail, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.OrderDetail, error)
}

type OrdersHandler struct {
	orders  OrderManager
	timeout time.Duration
}

func NewOrdersHandler(orders OrderManager, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderItemDTO struct {
	ListingName string `json:"listing_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type OrderResponseDTO struct {
	ID              string         `json:"id"`
	BuyerID         string         `json:"buyer_id"`
	TotalAmount     string         `json:"total_amount"`
	Status          string         `json:"status"`
	PaymentMethod   string         `json:"payment_method"`
	DeliveryAddress string         `json:"delivery_address"`
	Items           []OrderItemDTO `json:"items,omitempty"`
	Subtotal        string         `json:"subtotal,omitempty"`
	ShippingCost    string         `json:"shipping_cost,omitempty"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

type CreateOrderItemDTO struct {
	ListingName string          `json:"listing_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateOrderRequestDTO struct {
	PaymentMethod   string               `json:"payment_method"`
	DeliveryAddress string               `json:"delivery_address"`
	Shipping        decimal.Decimal      `json:"shipping"`
	Items           []CreateOrderItemDTO `json:"items"`
}

type UpdateStatusRequestDTO struct {
	Action string `json:"action"`
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		ID:              o.ID.String(),
		BuyerID:         o.BuyerID.String(),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		Status:          o.Status.String(),
		PaymentMethod:   o.PaymentMethod,
		DeliveryAddress: o.DeliveryAddress,
		CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func convertOrderDetail(d *domain.OrderDetail) OrderResponseDTO {
	dto := convertOrder(&d.Order)
	dto.Items = make([]OrderItemDTO, 0, len(d.Items))
	for _, it := range d.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ListingName: it.ListingName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
		})
	}
	dto.Subtotal = d.Subtotal().StringFixed(2)
	dto.ShippingCost = d.ShippingCost().StringFixed(2)
	return dto
}

func parseOrderID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getBuyerIDFromContext(r.Context())
	if buyerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer authentication")
		return
	}

	orders, err := h.orders.ListBuyerOrders(ctx, buyerID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// POST /api/v1/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getBuyerIDFromContext(r.Context())
	if buyerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer authentication")
		return
	}

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItem{
			ListingName: it.ListingName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}

	order, err := h.orders.PlaceOrder(ctx, buyerID, service.PlaceOrderInput{
		PaymentMethod:   req.PaymentMethod,
		DeliveryAddress: req.DeliveryAddress,
		Shipping:        req.Shipping,
		Items:           items,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getBuyerIDFromContext(r.Context())
	if buyerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer authentication")
		return
	}

	orderID, ok := parseOrderID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	detail, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	// Another buyer's order is reported as missing.
	if detail.BuyerID != buyerID {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	respondJSON(w, http.StatusOK, convertOrderDetail(detail))
}

// POST /api/v1/orders/{order_id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if getBuyerIDFromContext(r.Context()) == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer authentication")
		return
	}

	orderID, ok := parseOrderID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	action, err := domain.ParseOrderAction(req.Action)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if action == domain.ActionConfirmDelivery {
		respondError(w, http.StatusConflict, "illegal_transition", "delivery is confirmed through the delivery endpoint")
		return
	}

	order, err := h.orders.Advance(ctx, orderID, action)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// POST /api/v1/orders/{order_id}/delivery
func (h *OrdersHandler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getBuyerIDFromContext(r.Context())
	if buyerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer authentication")
		return
	}

	orderID, ok := parseOrderID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	// Only the buyer who placed the order confirms its delivery.
	detail, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if detail.BuyerID != buyerID {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	order, err := h.orders.ConfirmDelivery(ctx, orderID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}
