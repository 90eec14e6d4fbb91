package repository

import (
	"context"
	"testing"
	"time"

	"qahwa/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(userID uuid.UUID, lines []model.OrderLine) *model.Order {
	now := time.Now().UTC()
	id := uuid.New()
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = id
	}
	return &model.Order{
		ID:            id,
		UserID:        userID,
		TotalAmount:   model.LinesTotal(lines),
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Shipping: model.ShippingSnapshot{
			Governorate: "القاهرة",
			City:        "مدينة نصر",
			Street:      "شارع عباس العقاد",
		},
		CreatedAt: now,
		UpdatedAt: now,
		Lines:     lines,
	}
}

func insertOrder(t *testing.T, repo OrderRepository, order *model.Order) {
	t.Helper()
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderLines(ctx, tx, order.Lines))
	require.NoError(t, tx.Commit(ctx))
}

func TestOrderRepository_CreateOrderWithTransaction(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())
	seedProducts(t, pool, []model.Product{coffee(1, "يمني", 50), coffee(2, "حبشي", 30)})

	user := uuid.New()
	order := newOrder(user, []model.OrderLine{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(50)},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(30)},
	})
	insertOrder(t, repo, order)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user, got.UserID)
	assert.Equal(t, model.OrderStatusPending, got.Status)
	assert.True(t, decimal.NewFromInt(130).Equal(got.TotalAmount))
	assert.Equal(t, "القاهرة", got.Shipping.Governorate)
	require.Len(t, got.Lines, 2)
	assert.True(t, decimal.NewFromInt(130).Equal(model.LinesTotal(got.Lines)))
	require.NotNil(t, got.Lines[0].Product)
	assert.Equal(t, "يمني", got.Lines[0].Product.NameAR)
}

func TestOrderRepository_RollbackLeavesNothing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	order := newOrder(uuid.New(), []model.OrderLine{
		{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
	})

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, tx.Rollback(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_LineWithDeletedProduct(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())
	seedProducts(t, pool, []model.Product{coffee(1, "يمني", 50)})

	order := newOrder(uuid.New(), []model.OrderLine{
		{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(50)},
	})
	insertOrder(t, repo, order)

	_, err := pool.Exec(ctx, `DELETE FROM products WHERE id = 1`)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Nil(t, got.Lines[0].Product)
	assert.Equal(t, model.MissingProductName, got.Lines[0].DisplayProduct().NameAR)
}

func TestOrderRepository_ListByUser(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	user := uuid.New()
	older := newOrder(user, []model.OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}})
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	newer := newOrder(user, []model.OrderLine{{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(10)}})
	foreign := newOrder(uuid.New(), []model.OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}})

	insertOrder(t, repo, older)
	insertOrder(t, repo, newer)
	insertOrder(t, repo, foreign)

	orders, err := repo.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	user := uuid.New()
	order := newOrder(user, []model.OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}})
	insertOrder(t, repo, order)

	tests := []struct {
		name     string
		userID   uuid.UUID
		expected model.OrderStatus
		updated  bool
	}{
		{name: "Wrong owner", userID: uuid.New(), expected: model.OrderStatusPending, updated: false},
		{name: "Wrong expected status", userID: user, expected: model.OrderStatusShipped, updated: false},
		{name: "Pending to cancelled", userID: user, expected: model.OrderStatusPending, updated: true},
		{name: "Already cancelled", userID: user, expected: model.OrderStatusPending, updated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := repo.UpdateStatus(ctx, order.ID, tt.userID, tt.expected, model.OrderStatusCancelled)
			require.NoError(t, err)
			assert.Equal(t, tt.updated, updated)
		})
	}

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
}
