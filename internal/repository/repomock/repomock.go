// Package repomock provides testify mocks of the repository interfaces.
package repomock

import (
	"context"

	"qahwa/internal/model"
	"qahwa/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var (
	_ repository.ProductRepository = (*ProductRepository)(nil)
	_ repository.CartRepository    = (*CartRepository)(nil)
	_ repository.OrderRepository   = (*OrderRepository)(nil)
	_ repository.AddressRepository = (*AddressRepository)(nil)
	_ pgx.Tx                       = (*Tx)(nil)
)

// ProductRepository is a mock implementation of repository.ProductRepository.
type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *ProductRepository) Upsert(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// CartRepository is a mock implementation of repository.CartRepository.
type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartRow, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartRow), args.Error(1)
}

func (m *CartRepository) FindByProduct(ctx context.Context, userID uuid.UUID, productID int64) (*model.CartRow, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartRow), args.Error(1)
}

func (m *CartRepository) Insert(ctx context.Context, userID uuid.UUID, productID int64, quantity int, unitPrice decimal.Decimal) (*model.CartRow, error) {
	args := m.Called(ctx, userID, productID, quantity, unitPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartRow), args.Error(1)
}

func (m *CartRepository) Increment(ctx context.Context, rowID uuid.UUID, delta int) (*model.CartRow, error) {
	args := m.Called(ctx, rowID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartRow), args.Error(1)
}

func (m *CartRepository) UpdateQuantity(ctx context.Context, rowID uuid.UUID, quantity int) error {
	args := m.Called(ctx, rowID, quantity)
	return args.Error(0)
}

func (m *CartRepository) Delete(ctx context.Context, rowID uuid.UUID) error {
	args := m.Called(ctx, rowID)
	return args.Error(0)
}

func (m *CartRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *CartRepository) LockRowsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, rowIDs []uuid.UUID) ([]model.CartRow, error) {
	args := m.Called(ctx, tx, userID, rowIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartRow), args.Error(1)
}

func (m *CartRepository) DeleteRowsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, rowIDs []uuid.UUID) error {
	args := m.Called(ctx, tx, userID, rowIDs)
	return args.Error(0)
}

// OrderRepository is a mock implementation of repository.OrderRepository.
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a Tx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *OrderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	args := m.Called(ctx, tx, lines)
	return args.Error(0)
}

func (m *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *OrderRepository) UpdateStatus(ctx context.Context, id, userID uuid.UUID, expected, next model.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, userID, expected, next)
	return args.Bool(0), args.Error(1)
}

// AddressRepository is a mock implementation of repository.AddressRepository.
type AddressRepository struct {
	mock.Mock
}

func (m *AddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.UserAddress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserAddress), args.Error(1)
}

func (m *AddressRepository) Create(ctx context.Context, address *model.UserAddress) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *AddressRepository) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, addressID)
	return args.Bool(0), args.Error(1)
}

// Tx is a minimal mock implementation of pgx.Tx. Only Commit and Rollback
// are recorded.
type Tx struct {
	mock.Mock
	Committed  bool
	RolledBack bool
}

func (m *Tx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.Committed = true
	return args.Error(0)
}

func (m *Tx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.RolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in tests
func (m *Tx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *Tx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *Tx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *Tx) Conn() *pgx.Conn                                               { return nil }
