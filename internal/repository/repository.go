package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
)

// Error kinds surfaced by the store. Returned errors wrap one of these and the
// underlying driver error, so callers match with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrConnectionFailure   = errors.New("connection failure")
	ErrTimeout             = errors.New("store timeout")
	ErrStatusConflict      = errors.New("order status changed concurrently")
	ErrInvalidValue        = errors.New("value rejected by store")
)

type Credentials struct {
	URL               string
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// DSN returns the connection string, preferring an explicit URL.
func (c *Credentials) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName)
}

type BuyerRepository interface {
	GetBuyerByEmail(ctx context.Context, email string) (*domain.Buyer, error)
	CreateBuyer(ctx context.Context, buyer domain.NewBuyer) (*domain.Buyer, error)
}

type CartRepository interface {
	CreateCartItem(ctx context.Context, item domain.NewCartItem) (*domain.CartItem, error)
	GetCartItem(ctx context.Context, buyerID uuid.UUID) (*domain.CartItem, error)
	ListCartItems(ctx context.Context, buyerID uuid.UUID) ([]*domain.CartItem, error)
}

type OrderRepository interface {
	CreateBuyerOrder(ctx context.Context, order domain.NewOrder) (*domain.Order, error)
	CreateOrderItem(ctx context.Context, item domain.OrderItem) (*domain.OrderItem, error)
	PlaceOrder(ctx context.Context, order domain.NewOrder, items []domain.OrderItem) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderDetail(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error)
	ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error)
	ListOrderDetails(ctx context.Context, limit int) ([]*domain.OrderDetail, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) (*domain.Order, error)
}

type ReviewRepository interface {
	AddReview(ctx context.Context, listingID, customerID string, rating int, feedback string) (*domain.Review, error)
	ListReviewsByListing(ctx context.Context, listingID string) ([]*domain.Review, error)
}

// Store is the full buyer data-access module.
type Store interface {
	BuyerRepository
	CartRepository
	OrderRepository
	ReviewRepository
	RunMigrations(*Credentials) error
	Close() error
}
