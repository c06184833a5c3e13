package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/handcraftedhaven/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrders_Success(t *testing.T) {
	buyerID := uuid.New()
	mock := newMockOrderManager(
		testOrderDetail(buyerID, domain.OrderStatusPending),
		testOrderDetail(uuid.New(), domain.OrderStatusShipped),
	)

	handler := NewOrdersHandler(mock, 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withBuyer(httptest.NewRequest("GET", "/api/v1/orders", nil), buyerID)

	handler.ListOrders(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var resp []OrderResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, buyerID.String(), resp[0].BuyerID)
	assert.Equal(t, "170.00", resp[0].TotalAmount)
	assert.Equal(t, "Pending", resp[0].Status)
}

func TestListOrders_Unauthenticated(t *testing.T) {
	handler := NewOrdersHandler(newMockOrderManager(), 5*time.Second)
	recorder := httptest.NewRecorder()

	handler.ListOrders(recorder, httptest.NewRequest("GET", "/api/v1/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestListOrders_StoreUnavailable(t *testing.T) {
	mock := newMockOrderManager()
	mock.err = fmt.Errorf("list orders: %w: %w", repository.ErrConnectionFailure, fmt.Errorf("dial tcp"))

	handler := NewOrdersHandler(mock, 5*time.Second)
	recorder := httptest.NewRecorder()
	handler.ListOrders(recorder, withBuyer(httptest.NewRequest("GET", "/api/v1/orders", nil), uuid.New()))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestCreateOrder_Success(t *testing.T) {
	mock := newMockOrderManager()
	handler := NewOrdersHandler(mock, 5*time.Second)

	body := `{"payment_method":"card","delivery_address":"12 Loom Lane","shipping":"15",
		"items":[{"listing_name":"Handwoven Basket","quantity":2,"unit_price":"45.00"}]}`
	recorder := httptest.NewRecorder()
	request := withBuyer(httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(body)), uuid.New())

	handler.CreateOrder(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)
	var resp OrderResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "105.00", resp.TotalAmount)
	assert.Equal(t, "Pending", resp.Status)
	require.NotNil(t, mock.placed)
	assert.Equal(t, "12 Loom Lane", mock.placed.DeliveryAddress)
	require.Len(t, mock.placed.Items, 1)
	assert.Equal(t, 2, mock.placed.Items[0].Quantity)
}

func TestCreateOrder_InvalidJSON(t *testing.T) {
	handler := NewOrdersHandler(newMockOrderManager(), 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withBuyer(httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader("{")), uuid.New())

	handler.CreateOrder(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetOrder(t *testing.T) {
	buyerID := uuid.New()
	detail := testOrderDetail(buyerID, domain.OrderStatusProcessing)
	handler := NewOrdersHandler(newMockOrderManager(detail), 5*time.Second)

	tests := []struct {
		name    string
		buyer   uuid.UUID
		orderID string
		want    int
	}{
		{"owner", buyerID, detail.ID.String(), http.StatusOK},
		{"other buyer", uuid.New(), detail.ID.String(), http.StatusNotFound},
		{"unknown order", buyerID, uuid.NewString(), http.StatusNotFound},
		{"malformed id", buyerID, "not-a-uuid", http.StatusBadRequest},
		{"anonymous", uuid.Nil, detail.ID.String(), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/api/v1/orders/"+tt.orderID, nil)
			if tt.buyer != uuid.Nil {
				request = withBuyer(request, tt.buyer)
			}
			recorder := httptest.NewRecorder()

			handler.GetOrder(recorder, withOrderID(request, tt.orderID))

			assert.Equal(t, tt.want, recorder.Code)
		})
	}
}

func TestGetOrder_IncludesItemsAndShipping(t *testing.T) {
	buyerID := uuid.New()
	detail := testOrderDetail(buyerID, domain.OrderStatusPending)
	handler := NewOrdersHandler(newMockOrderManager(detail), 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withOrderID(withBuyer(httptest.NewRequest("GET", "/", nil), buyerID), detail.ID.String())
	handler.GetOrder(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var resp OrderResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, "155.00", resp.Subtotal)
	assert.Equal(t, "15.00", resp.ShippingCost)
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.OrderStatus
		action     string
		wantCode   int
		wantStatus string
	}{
		{"start processing", domain.OrderStatusPending, "start-processing", http.StatusOK, "Processing"},
		{"mark shipped", domain.OrderStatusProcessing, "mark-shipped", http.StatusOK, "Shipped"},
		{"ship from pending", domain.OrderStatusPending, "mark-shipped", http.StatusConflict, ""},
		{"unknown action", domain.OrderStatusPending, "cancel", http.StatusBadRequest, ""},
		{"delivery via status endpoint", domain.OrderStatusShipped, "confirm-delivery", http.StatusConflict, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := testOrderDetail(uuid.New(), tt.status)
			mock := newMockOrderManager(detail)
			handler := NewOrdersHandler(mock, 5*time.Second)

			body := fmt.Sprintf(`{"action":%q}`, tt.action)
			request := httptest.NewRequest("POST", "/", strings.NewReader(body))
			request = withOrderID(withBuyer(request, uuid.New()), detail.ID.String())
			recorder := httptest.NewRecorder()

			handler.UpdateStatus(recorder, request)

			require.Equal(t, tt.wantCode, recorder.Code, recorder.Body.String())
			if tt.wantStatus != "" {
				var resp OrderResponseDTO
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
				assert.Equal(t, tt.wantStatus, resp.Status)
			}
		})
	}
}

func TestUpdateStatus_ConcurrentChange(t *testing.T) {
	detail := testOrderDetail(uuid.New(), domain.OrderStatusPending)
	mock := newMockOrderManager(detail)
	mock.advanceErr = fmt.Errorf("update order status: %w", repository.ErrStatusConflict)
	handler := NewOrdersHandler(mock, 5*time.Second)

	request := httptest.NewRequest("POST", "/", strings.NewReader(`{"action":"start-processing"}`))
	request = withOrderID(withBuyer(request, uuid.New()), detail.ID.String())
	recorder := httptest.NewRecorder()

	handler.UpdateStatus(recorder, request)

	assert.Equal(t, http.StatusConflict, recorder.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "illegal_transition", resp.Code)
}

func TestConfirmDelivery(t *testing.T) {
	buyerID := uuid.New()

	t.Run("owner confirms shipped order", func(t *testing.T) {
		detail := testOrderDetail(buyerID, domain.OrderStatusShipped)
		handler := NewOrdersHandler(newMockOrderManager(detail), 5*time.Second)

		recorder := httptest.NewRecorder()
		request := withOrderID(withBuyer(httptest.NewRequest("POST", "/", nil), buyerID), detail.ID.String())
		handler.ConfirmDelivery(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
		var resp OrderResponseDTO
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "Delivered", resp.Status)
	})

	t.Run("other buyer", func(t *testing.T) {
		detail := testOrderDetail(buyerID, domain.OrderStatusShipped)
		mock := newMockOrderManager(detail)
		handler := NewOrdersHandler(mock, 5*time.Second)

		recorder := httptest.NewRecorder()
		request := withOrderID(withBuyer(httptest.NewRequest("POST", "/", nil), uuid.New()), detail.ID.String())
		handler.ConfirmDelivery(recorder, request)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Empty(t, mock.advanced)
	})

	t.Run("not yet shipped", func(t *testing.T) {
		detail := testOrderDetail(buyerID, domain.OrderStatusProcessing)
		handler := NewOrdersHandler(newMockOrderManager(detail), 5*time.Second)

		recorder := httptest.NewRecorder()
		request := withOrderID(withBuyer(httptest.NewRequest("POST", "/", nil), buyerID), detail.ID.String())
		handler.ConfirmDelivery(recorder, request)

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}
