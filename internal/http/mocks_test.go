package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/catalog"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/handcraftedhaven/storefront/internal/repository"
	"github.com/handcraftedhaven/storefront/internal/service"
	"github.com/shopspring/decimal"
)

// --- Mocks ---

type mockOrderManager struct {
	details    map[uuid.UUID]*domain.OrderDetail
	placed     *service.PlaceOrderInput
	advanceErr error
	advanced   []domain.OrderAction
	err        error
}

func newMockOrderManager(details ...*domain.OrderDetail) *mockOrderManager {
	m := &mockOrderManager{details: make(map[uuid.UUID]*domain.OrderDetail)}
	for _, d := range details {
		m.details[d.ID] = d
	}
	return m
}

func (m *mockOrderManager) PlaceOrder(_ context.Context, buyerID uuid.UUID, in service.PlaceOrderInput) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.placed = &in
	total := in.Shipping
	for _, it := range in.Items {
		total = total.Add(it.Subtotal())
	}
	return &domain.Order{
		ID:          uuid.New(),
		BuyerID:     buyerID,
		TotalAmount: total,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}, nil
}

func (m *mockOrderManager) Advance(_ context.Context, orderID uuid.UUID, action domain.OrderAction) (*domain.Order, error) {
	m.advanced = append(m.advanced, action)
	if m.advanceErr != nil {
		return nil, m.advanceErr
	}
	d, ok := m.details[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next, err := d.Status.Next(action)
	if err != nil {
		return nil, err
	}
	d.Status = next
	d.UpdatedAt = time.Now()
	o := d.Order
	return &o, nil
}

func (m *mockOrderManager) ConfirmDelivery(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return m.Advance(ctx, orderID, domain.ActionConfirmDelivery)
}

func (m *mockOrderManager) GetOrder(_ context.Context, orderID uuid.UUID) (*domain.OrderDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.details[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockOrderManager) ListBuyerOrders(_ context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Order
	for _, d := range m.details {
		if d.BuyerID == buyerID {
			o := d.Order
			out = append(out, &o)
		}
	}
	return out, nil
}

func (m *mockOrderManager) ListRecent(_ context.Context, limit int) ([]*domain.OrderDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.OrderDetail
	for _, d := range m.details {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockBuyerManager struct {
	buyer *domain.Buyer
	cart  *service.Cart
	added *domain.NewCartItem
	err   error
}

func (m *mockBuyerManager) Register(_ context.Context, in service.RegisterInput) (*domain.Buyer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Buyer{
		ID:           uuid.New(),
		Email:        in.Email,
		Name:         in.Name,
		AuthProvider: "credentials",
		Role:         domain.RoleCustomer,
		CreatedAt:    time.Now(),
	}, nil
}

func (m *mockBuyerManager) FindByEmail(_ context.Context, _ string) (*domain.Buyer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.buyer, nil
}

func (m *mockBuyerManager) AddToCart(_ context.Context, item domain.NewCartItem) (*domain.CartItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.added = &item
	return &domain.CartItem{
		ID:          uuid.New(),
		BuyerID:     item.BuyerID,
		ListingName: item.ListingName,
		Price:       item.Price,
		Quantity:    item.Quantity,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *mockBuyerManager) Cart(_ context.Context, buyerID uuid.UUID) (*service.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return &service.Cart{BuyerID: buyerID, Total: decimal.Zero}, nil
	}
	return m.cart, nil
}

type mockReviewManager struct {
	reviews []*domain.Review
	err     error
}

func (m *mockReviewManager) Submit(_ context.Context, listingID, customerID string, rating int, feedback string) (*domain.Review, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := domain.ValidateRating(rating); err != nil {
		return nil, err
	}
	now := time.Now()
	rv := &domain.Review{
		ID:         uuid.New(),
		ListingID:  listingID,
		CustomerID: customerID,
		Rating:     rating,
		Feedback:   feedback,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.reviews = append(m.reviews, rv)
	return rv, nil
}

func (m *mockReviewManager) ForListing(_ context.Context, listingID string) (*service.ReviewSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Review
	for _, rv := range m.reviews {
		if rv.ListingID == listingID {
			out = append(out, rv)
		}
	}
	return &service.ReviewSummary{
		ListingID: listingID,
		Reviews:   out,
		Average:   domain.AverageRating(out),
	}, nil
}

type mockCatalog struct {
	products []*domain.Product
	err      error
}

func (m *mockCatalog) ListProducts(_ context.Context, category string) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) ListCategories(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range m.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

// --- helpers ---

func withBuyer(r *http.Request, id uuid.UUID) *http.Request {
	return r.WithContext(withBuyerID(r.Context(), id))
}

func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withOrderID(r *http.Request, id string) *http.Request {
	return withURLParams(r, "order_id", id)
}

func testProducts() []*domain.Product {
	return []*domain.Product{
		{ID: "1", Name: "Handwoven Basket", Price: decimal.RequireFromString("45.00"), Category: "Home Decor", ImageURL: "/images/basket.jpg"},
		{ID: "2", Name: "Ceramic Coffee Mug", Price: decimal.RequireFromString("28.00"), Category: "Kitchen", ImageURL: "/images/mug.jpg"},
		{ID: "3", Name: "Macrame Wall Hanging", Price: decimal.RequireFromString("65.50"), Category: "Home Decor", ImageURL: "/images/macrame.jpg"},
	}
}

func testOrderDetail(buyerID uuid.UUID, status domain.OrderStatus) *domain.OrderDetail {
	now := time.Now()
	return &domain.OrderDetail{
		Order: domain.Order{
			ID:              uuid.New(),
			BuyerID:         buyerID,
			TotalAmount:     decimal.RequireFromString("170.00"),
			Status:          status,
			PaymentMethod:   "card",
			DeliveryAddress: "12 Loom Lane",
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		Items: []domain.OrderItem{
			{ListingName: "Handwoven Basket", Quantity: 2, UnitPrice: decimal.RequireFromString("45.00")},
			{ListingName: "Macrame Wall Hanging", Quantity: 1, UnitPrice: decimal.RequireFromString("65.00")},
		},
	}
}
