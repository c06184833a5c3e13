package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// NormalizeRole maps blank or unrecognised values to the customer role.
func NormalizeRole(r string) Role {
	if Role(strings.TrimSpace(strings.ToLower(r))) == RoleSeller {
		return RoleSeller
	}
	return RoleCustomer
}

type Buyer struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	AuthProvider string
	Role         Role
	CreatedAt    time.Time
}

type NewBuyer struct {
	Email        string
	PasswordHash string
	Name         string
	AuthProvider string
}

type CartItem struct {
	ID           uuid.UUID
	BuyerID      uuid.UUID
	Description  string
	ListingName  string
	Price        decimal.Decimal
	ProductImage string
	Quantity     int
	CreatedAt    time.Time
}

type NewCartItem struct {
	BuyerID      uuid.UUID
	Description  string
	ListingName  string
	Price        decimal.Decimal
	ProductImage string
	Quantity     int
}
