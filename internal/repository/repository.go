package repository

import (
	"context"
	"errors"

	"qahwa/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrCartRowExists is returned by CartRepository.Insert when the user already
// holds a row for the product.
var ErrCartRowExists = errors.New("cart row already exists for product")

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// Upsert inserts or replaces a product keyed by ID.
	Upsert(ctx context.Context, product *model.Product) error
}

// CartRepository is the gateway over the cart_items table.
type CartRepository interface {
	// ListByUser returns every cart row of the user with its related product when present.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartRow, error)

	// FindByProduct returns the user's row for the product, or nil.
	FindByProduct(ctx context.Context, userID uuid.UUID, productID int64) (*model.CartRow, error)

	// Insert creates a row. Returns ErrCartRowExists on a duplicate product.
	Insert(ctx context.Context, userID uuid.UUID, productID int64, quantity int, unitPrice decimal.Decimal) (*model.CartRow, error)

	// Increment atomically adds delta to the row quantity and returns the updated row.
	// Returns ErrCartRowNotFound when the row is gone.
	Increment(ctx context.Context, rowID uuid.UUID, delta int) (*model.CartRow, error)

	// UpdateQuantity sets the row quantity. Returns ErrCartRowNotFound when the row is gone.
	UpdateQuantity(ctx context.Context, rowID uuid.UUID, quantity int) error

	// Delete removes a single row. Returns ErrCartRowNotFound when the row is gone.
	Delete(ctx context.Context, rowID uuid.UUID) error

	// DeleteAllForUser removes every row of the user.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error

	// LockRowsTx locks the listed rows of the user within tx and returns those still present.
	LockRowsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, rowIDs []uuid.UUID) ([]model.CartRow, error)

	// DeleteRowsTx removes the listed rows of the user within tx.
	DeleteRowsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, rowIDs []uuid.UUID) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderLines inserts multiple order lines within the provided transaction.
	CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByID retrieves an order by its ID along with its lines. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser returns the user's orders, newest first, without lines.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// UpdateStatus moves the order from expected to next when it is still owned by
	// userID and still in expected. Reports false when nothing matched.
	UpdateStatus(ctx context.Context, id, userID uuid.UUID, expected, next model.OrderStatus) (bool, error)
}

// AddressRepository is the gateway over the user_addresses table.
type AddressRepository interface {
	// ListByUser returns the user's addresses, default first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.UserAddress, error)

	// Create inserts a new address. A default address clears the previous default.
	Create(ctx context.Context, address *model.UserAddress) error

	// SetDefault makes the address the user's only default. Reports false when the
	// address does not belong to the user.
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (bool, error)
}
