package service

import (
	"context"

	"qahwa/internal/model"

	"github.com/google/uuid"
)

// ProductService defines read operations on the catalogue.
type ProductService interface {
	// GetAll retrieves products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

// AddressService defines operations on a user's saved shipping addresses.
type AddressService interface {
	// List returns the user's addresses, default first.
	List(ctx context.Context, userID uuid.UUID) ([]model.UserAddress, error)

	// Create saves a new address. The user's first address is always the default.
	Create(ctx context.Context, userID uuid.UUID, req *model.AddressRequest) (*model.UserAddress, error)

	// SetDefault makes addressID the user's only default address.
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
}

// OrderService defines read operations on a user's orders.
type OrderService interface {
	// List returns the user's orders, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// GetByID retrieves an order of the user with its lines.
	GetByID(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)
}
