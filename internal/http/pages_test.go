package http

import (
	"errors"
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
	"go.uber.org/zap/zaptest"
)

type pagesFixture struct {
	orders  *mockOrderManager
	reviews *mockReviewManager
	router  http.Handler
}

func newPagesFixture(t *testing.T, details ...*domain.OrderDetail) *pagesFixture {
	t.Helper()

	orders := newMockOrderManager(details...)
	reviews := &mockReviewManager{}
	products := &mockCatalog{products: testProducts()}

	pages, err := NewPages(products, reviews, orders, zaptest.NewLogger(t), 5*time.Second)
	require.NoError(t, err)

	router := NewRouter(Handlers{
		Buyers:   NewBuyerHandler(&mockBuyerManager{}, 5*time.Second),
		Orders:   NewOrdersHandler(orders, 5*time.Second),
		Products: NewProductHandler(products, 5*time.Second),
		Reviews:  NewReviewHandler(reviews, 5*time.Second),
		Pages:    pages,
	}, 30*time.Second)

	return &pagesFixture{orders: orders, reviews: reviews, router: router}
}

func (f *pagesFixture) do(method, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, httptest.NewRequest(method, target, nil))
	return recorder
}

func (f *pagesFixture) doAs(method, target string, buyerID uuid.UUID) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, nil)
	request.Header.Set(BuyerIDHeader, buyerID.String())
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func TestMarketplacePage(t *testing.T) {
	f := newPagesFixture(t)

	rec := f.do("GET", "/marketplace")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Handwoven Basket")
	assert.Contains(t, body, "Ceramic Coffee Mug")
	assert.Contains(t, body, "$65.50")
	assert.Contains(t, body, `href="/marketplace?category=Kitchen"`)

	rec = f.do("GET", "/marketplace?category=Kitchen")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ceramic Coffee Mug")
	assert.NotContains(t, rec.Body.String(), "Handwoven Basket")

	rec = f.do("GET", "/marketplace?category=Jewelry")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No products found")
}

func TestProductPage(t *testing.T) {
	f := newPagesFixture(t)
	f.reviews.reviews = []*domain.Review{
		{ID: uuid.New(), ListingID: "2", CustomerID: "c1", Rating: 5, Feedback: "Holds heat well", UpdatedAt: time.Now()},
		{ID: uuid.New(), ListingID: "2", CustomerID: "c2", Rating: 4, UpdatedAt: time.Now()},
		{ID: uuid.New(), ListingID: "1", CustomerID: "c1", Rating: 1, Feedback: "Other listing"},
	}

	rec := f.do("GET", "/marketplace/2")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ceramic Coffee Mug")
	assert.Contains(t, body, "Holds heat well")
	assert.Contains(t, body, "Average rating: 4.5")
	assert.NotContains(t, body, "Other listing")
}

func TestProductPage_NotFound(t *testing.T) {
	f := newPagesFixture(t)

	rec := f.do("GET", "/marketplace/999")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "The requested product does not exist.")
}

func TestDashboardPage_Views(t *testing.T) {
	detail := testOrderDetail(uuid.New(), domain.OrderStatusPending)
	f := newPagesFixture(t, detail)

	tests := []struct {
		target   string
		contains []string
		active   string
	}{
		{"/dashboard", []string{"System Overview", "Dashboard Overview"}, "overview"},
		{"/dashboard?view=products", []string{"Product Listings", "Manage your current inventory"}, "products"},
		{"/dashboard?view=settings", []string{"User Settings", "System Settings"}, "settings"},
		{"/dashboard?view=orders", []string{"Orders &amp; Fulfillment", "Ada Lovelace", "$170.00", "View Details"}, "orders"},
		{"/dashboard?view=bogus", []string{"Welcome!"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := f.do("GET", tt.target)

			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, s := range tt.contains {
				assert.Contains(t, body, s)
			}
			wantActive := 0
			if tt.active != "" {
				wantActive = 1
				assert.Contains(t, body, `href="/dashboard?view=`+tt.active+`" class="active"`)
			}
			assert.Equal(t, wantActive, strings.Count(body, `class="active"`))
		})
	}
}

func TestOrderDetailPage(t *testing.T) {
	tests := []struct {
		status     domain.OrderStatus
		wantButton string
		wantNote   string
	}{
		{domain.OrderStatusPending, "Start Processing", ""},
		{domain.OrderStatusProcessing, "Mark as Shipped", ""},
		{domain.OrderStatusShipped, "", "Awaiting customer delivery confirmation."},
		{domain.OrderStatusDelivered, "", "Order Completed."},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			detail := testOrderDetail(uuid.New(), tt.status)
			f := newPagesFixture(t, detail)

			rec := f.do("GET", "/dashboard/orders/"+detail.ID.String())

			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "Subtotal: $155.00")
			assert.Contains(t, body, "Shipping: $15.00")
			assert.Contains(t, body, "Total: $170.00")
			assert.Contains(t, body, "12 Loom Lane")
			assert.Contains(t, body, "ada@example.com")
			assert.Contains(t, body, `href="/dashboard?view=orders" class="active"`)
			assert.NotContains(t, body, "Confirm Delivery")
			if tt.wantButton != "" {
				assert.Contains(t, body, tt.wantButton)
				assert.Equal(t, 1, strings.Count(body, "<button"))
			} else {
				assert.NotContains(t, body, "<button")
			}
			if tt.wantNote != "" {
				assert.Contains(t, body, tt.wantNote)
			}
		})
	}
}

func TestOrderDetailPage_NotFound(t *testing.T) {
	f := newPagesFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do("GET", "/dashboard/orders/"+uuid.NewString()).Code)
	assert.Equal(t, http.StatusNotFound, f.do("GET", "/dashboard/orders/nope").Code)
}

func TestOrderAction_Success(t *testing.T) {
	detail := testOrderDetail(uuid.New(), domain.OrderStatusPending)
	f := newPagesFixture(t, detail)

	rec := f.doAs("POST", "/dashboard/orders/"+detail.ID.String()+"/actions/start-processing", uuid.New())

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/orders/"+detail.ID.String(), rec.Header().Get("Location"))
	assert.Equal(t, domain.OrderStatusProcessing, f.orders.details[detail.ID].Status)
}

func TestOrderAction_RollbackShowsBanner(t *testing.T) {
	detail := testOrderDetail(uuid.New(), domain.OrderStatusPending)
	f := newPagesFixture(t, detail)
	f.orders.advanceErr = errors.Join(repository.ErrStatusConflict, errors.New("row changed"))

	rec := f.doAs("POST", "/dashboard/orders/"+detail.ID.String()+"/actions/start-processing", uuid.New())

	require.Equal(t, http.StatusConflict, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `role="alert"`)
	assert.Contains(t, body, "Could not Start Processing")
	// The page shows the restored status and its action.
	assert.Contains(t, body, `<span class="status-pending">Pending</span>`)
	assert.Contains(t, body, "Start Processing</button>")
}

func TestOrderAction_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		status domain.OrderStatus
		action string
		want   int
	}{
		{"ship from pending", domain.OrderStatusPending, "mark-shipped", http.StatusConflict},
		{"confirm delivery from dashboard", domain.OrderStatusShipped, "confirm-delivery", http.StatusConflict},
		{"unknown action", domain.OrderStatusPending, "cancel", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := testOrderDetail(uuid.New(), tt.status)
			f := newPagesFixture(t, detail)

			rec := f.doAs("POST", "/dashboard/orders/"+detail.ID.String()+"/actions/"+tt.action, uuid.New())

			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, f.orders.advanced)
			assert.Equal(t, tt.status, f.orders.details[detail.ID].Status)
		})
	}
}

func TestOrderAction_RequiresIdentity(t *testing.T) {
	detail := testOrderDetail(uuid.New(), domain.OrderStatusPending)
	f := newPagesFixture(t, detail)

	rec := f.do("POST", "/dashboard/orders/"+detail.ID.String()+"/actions/start-processing")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.orders.advanced)
	assert.Equal(t, domain.OrderStatusPending, f.orders.details[detail.ID].Status)
}

func TestHealth(t *testing.T) {
	f := newPagesFixture(t)

	rec := f.do("GET", "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_MockAuth(t *testing.T) {
	buyerID := uuid.New()
	detail := testOrderDetail(buyerID, domain.OrderStatusPending)
	f := newPagesFixture(t, detail)

	request := httptest.NewRequest("GET", "/api/v1/orders/"+detail.ID.String(), nil)
	request.Header.Set(BuyerIDHeader, buyerID.String())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, request)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	request = httptest.NewRequest("GET", "/health", nil)
	request.Header.Set(RequestIDHeader, "edge-42")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, request)
	assert.Equal(t, []string{"edge-42"}, rec.Header().Values(RequestIDHeader))

	request = httptest.NewRequest("GET", "/api/v1/orders", nil)
	request.Header.Set(BuyerIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, request)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
