package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/handcraftedhaven/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt only accepts passwords up to 72 bytes.
	maxPasswordBytes = 72
	// buyers.email and buyers.name are VARCHAR(255).
	maxEmailLength = 255
	maxNameLength  = 255
)

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type Cart struct {
	BuyerID uuid.UUID
	Items   []*domain.CartItem
	Total   decimal.Decimal
}

type BuyerService struct {
	buyers     repository.BuyerRepository
	carts      repository.CartRepository
	logger     *zap.Logger
	bcryptCost int
}

func NewBuyerService(buyers repository.BuyerRepository, carts repository.CartRepository, logger *zap.Logger) *BuyerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuyerService{
		buyers:     buyers,
		carts:      carts,
		logger:     logger.Named("buyers"),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register stores a new credentials account with a bcrypt password hash.
// A taken email surfaces as repository.ErrConstraintViolation.
func (s *BuyerService) Register(ctx context.Context, in RegisterInput) (*domain.Buyer, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if utf8.RuneCountInString(email) > maxEmailLength {
		return nil, fmt.Errorf("%w: email is limited to %d characters", ErrInvalidInput, maxEmailLength)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email %q is not valid", ErrInvalidInput, in.Email)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name is limited to %d characters", ErrInvalidInput, maxNameLength)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password is limited to %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	buyer, err := s.buyers.CreateBuyer(ctx, domain.NewBuyer{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		AuthProvider: "credentials",
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("buyer registered", zap.Stringer("buyer_id", buyer.ID))
	return buyer, nil
}

func (s *BuyerService) FindByEmail(ctx context.Context, email string) (*domain.Buyer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return s.buyers.GetBuyerByEmail(ctx, email)
}

func (s *BuyerService) AddToCart(ctx context.Context, item domain.NewCartItem) (*domain.CartItem, error) {
	if item.BuyerID == uuid.Nil {
		return nil, fmt.Errorf("%w: buyer id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(item.ListingName) == "" {
		return nil, fmt.Errorf("%w: listing name is required", ErrInvalidInput)
	}
	if item.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if item.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}

	created, err := s.carts.CreateCartItem(ctx, item)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("cart item added",
		zap.Stringer("buyer_id", item.BuyerID),
		zap.String("listing", item.ListingName),
		zap.Int("quantity", item.Quantity))
	return created, nil
}

// Cart returns every line in the buyer's cart. An empty cart is not an error.
func (s *BuyerService) Cart(ctx context.Context, buyerID uuid.UUID) (*Cart, error) {
	items, err := s.carts.ListCartItems(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return &Cart{BuyerID: buyerID, Items: items, Total: total}, nil
}
