package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/handcraftedhaven/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type BuyerManager interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.Buyer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Buyer, error)
	AddToCart(ctx context.Context, item domain.NewCartItem) (*domain.CartItem, error)
	Cart(ctx context.Context, buyerID uuid.UUID) (*service.Cart, error)
}

type BuyerHandler struct {
	buyers  BuyerManager
	timeout time.Duration
}

func NewBuyerHandler(buyers BuyerManager, timeout time.Duration) *BuyerHandler {
	return &BuyerHandler{
		buyers:  buyers,
		timeout: timeout,
	}
}

type RegisterRequestDTO struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type BuyerResponseDTO struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	AuthProvider string `json:"auth_provider"`
	CreatedAt    string `json:"created_at"`
}

type AddCartItemRequestDTO struct {
	ListingName  string          `json:"listing_name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
}

type CartItemDTO struct {
	ID           string `json:"id"`
	ListingName  string `json:"listing_name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	ProductImage string `json:"product_image"`
	Quantity     int    `json:"quantity"`
	CreatedAt    string `json:"created_at"`
}

type CartResponseDTO struct {
	BuyerID string        `json:"buyer_id"`
	Items   []CartItemDTO `json:"items"`
	Total   string        `json:"total"`
}

func convertBuyer(b *domain.Buyer) BuyerResponseDTO {
	return BuyerResponseDTO{
		ID:           b.ID.String(),
		Email:        b.Email,
		Name:         b.Name,
		Role:         string(b.Role),
		AuthProvider: b.AuthProvider,
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func convertCartItem(c *domain.CartItem) CartItemDTO {
	return CartItemDTO{
		ID:           c.ID.String(),
		ListingName:  c.ListingName,
		Description:  c.Description,
		Price:        c.Price.StringFixed(2),
		ProductImage: c.ProductImage,
		Quantity:     c.Quantity,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// POST /api/v1/buyers
func (h *BuyerHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	buyer, err := h.buyers.Register(ctx, service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertBuyer(buyer))
}

// GET /api/v1/buyers?email=
func (h *BuyerHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	email := r.URL.Query().Get("email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "missing_email", "email is required")
		return
	}

	buyer, err := h.buyers.FindByEmail(ctx, email)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertBuyer(buyer))
}

// GET /api/v1/cart
func (h *BuyerHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getBuyerIDFromContext(r.Context())
	if buyerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer authentication")
		return
	}

	cart, err := h.buyers.Cart(ctx, buyerID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, convertCartItem(it))
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		BuyerID: buyerID.String(),
		Items:   items,
		Total:   cart.Total.StringFixed(2),
	})
}

// POST /api/v1/cart/items
func (h *BuyerHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getBuyerIDFromContext(r.Context())
	if buyerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer authentication")
		return
	}

	var req AddCartItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	item, err := h.buyers.AddToCart(ctx, domain.NewCartItem{
		BuyerID:      buyerID,
		Description:  req.Description,
		ListingName:  req.ListingName,
		Price:        req.Price,
		ProductImage: req.ProductImage,
		Quantity:     req.Quantity,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertCartItem(item))
}
