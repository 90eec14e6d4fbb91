package model

import (
	"time"

	"github.com/google/uuid"
)

// UserAddress is a saved shipping address. At most one per user is the default.
type UserAddress struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"userId" db:"user_id"`
	Governorate string    `json:"governorate" db:"governorate"`
	City        string    `json:"city" db:"city"`
	Street      string    `json:"street" db:"street"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	IsDefault   bool      `json:"isDefault" db:"is_default"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Snapshot copies the address fields for storage on an order.
func (a *UserAddress) Snapshot() ShippingSnapshot {
	return ShippingSnapshot{
		Governorate: a.Governorate,
		City:        a.City,
		Street:      a.Street,
		Notes:       a.Notes,
	}
}

// AddressRequest is the payload for creating an address.
type AddressRequest struct {
	Governorate string `json:"governorate"`
	City        string `json:"city"`
	Street      string `json:"street"`
	Notes       string `json:"notes,omitempty"`
	IsDefault   bool   `json:"isDefault"`
}
