package checkout

import (
	"context"
	"errors"
	"testing"

	"qahwa/internal/cart"
	"qahwa/internal/guest"
	"qahwa/internal/model"
	"qahwa/internal/repository/repomock"
	"qahwa/internal/session"
	"qahwa/internal/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	userID    uuid.UUID
	address   model.UserAddress
	orders    *repomock.OrderRepository
	carts     *repomock.CartRepository
	addresses *repomock.AddressRepository
	assembler *Assembler
}

func newFixture() *fixture {
	userID := uuid.New()
	f := &fixture{
		userID: userID,
		address: model.UserAddress{
			ID:          uuid.New(),
			UserID:      userID,
			Governorate: "الإسكندرية",
			City:        "سموحة",
			Street:      "شارع فوزي معاذ",
			Notes:       "الدور الثالث",
			IsDefault:   true,
		},
		orders:    &repomock.OrderRepository{},
		carts:     &repomock.CartRepository{},
		addresses: &repomock.AddressRepository{},
	}
	f.assembler = NewAssembler(f.orders, f.carts, f.addresses, telemetry.NewNopMetrics(), zerolog.Nop())
	return f
}

func (f *fixture) engine(t *testing.T, sess session.Session, rows []model.CartRow) *cart.Engine {
	t.Helper()
	if sess.Authenticated() {
		f.carts.On("ListByUser", mock.Anything, *sess.UserID).Return(rows, nil).Once()
	}
	m := cart.NewManager(f.carts, &repomock.ProductRepository{}, guest.NewMemoryStorage(), telemetry.NewNopMetrics(), zerolog.Nop())
	e, err := m.Open(context.Background(), sess)
	require.NoError(t, err)
	return e
}

func cartRow(userID uuid.UUID, productID int64, qty int, price int64) model.CartRow {
	return model.CartRow{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(price),
	}
}

func rowIDs(rows []model.CartRow) []uuid.UUID {
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestAssembler_Checkout_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rows := []model.CartRow{
		cartRow(f.userID, 1, 2, 50),
		cartRow(f.userID, 2, 1, 30),
	}
	e := f.engine(t, session.ForUser(f.userID), rows)
	ids := rowIDs(rows)

	tx := &repomock.Tx{}
	f.addresses.On("ListByUser", mock.Anything, f.userID).Return([]model.UserAddress{f.address}, nil)
	f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
	f.carts.On("LockRowsTx", mock.Anything, tx, f.userID, ids).Return(rows, nil)
	f.orders.On("CreateOrder", mock.Anything, tx, mock.MatchedBy(func(o *model.Order) bool {
		return o.UserID == f.userID &&
			o.TotalAmount.Equal(decimal.NewFromInt(130)) &&
			o.Status == model.OrderStatusPending &&
			o.PaymentStatus == model.PaymentStatusPending &&
			o.Shipping == f.address.Snapshot()
	})).Return(nil)
	f.orders.On("CreateOrderLines", mock.Anything, tx, mock.MatchedBy(func(lines []model.OrderLine) bool {
		return len(lines) == 2 &&
			lines[0].LineTotal().Equal(decimal.NewFromInt(100)) &&
			lines[1].LineTotal().Equal(decimal.NewFromInt(30))
	})).Return(nil)
	f.carts.On("DeleteRowsTx", mock.Anything, tx, f.userID, ids).Return(nil)
	tx.On("Commit", mock.Anything).Return(nil)

	addressID := f.address.ID
	order, notice, err := f.assembler.Checkout(ctx, e, &addressID)

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, model.Success(model.MsgOrderPlaced), notice)
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, "130", order.TotalAmount.String())
	require.Len(t, order.Lines, 2)
	for _, l := range order.Lines {
		assert.Equal(t, order.ID, l.OrderID)
	}
	assert.Empty(t, e.Lines())
	assert.True(t, e.TotalPrice().IsZero())
	assert.True(t, tx.Committed)
	assert.False(t, tx.RolledBack)

	f.orders.AssertExpectations(t)
	f.carts.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestAssembler_Checkout_Preconditions(t *testing.T) {
	addressID := uuid.New()

	tests := []struct {
		name      string
		guest     bool
		addressID *uuid.UUID
		rows      int
		wantErr   *model.DomainError
	}{
		{name: "Guest session", guest: true, addressID: &addressID, wantErr: model.ErrNotAuthenticated},
		{name: "No address selected", addressID: nil, rows: 1, wantErr: model.ErrAddressRequired},
		{name: "Address of someone else", addressID: &addressID, rows: 1, wantErr: model.ErrAddressNotFound},
		{name: "Empty cart", addressID: nil, rows: 0, wantErr: model.ErrCartEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()

			sess := session.ForUser(f.userID)
			if tt.guest {
				sess = session.ForGuest("g1")
			}
			var rows []model.CartRow
			for i := 0; i < tt.rows; i++ {
				rows = append(rows, cartRow(f.userID, int64(i+1), 1, 10))
			}
			e := f.engine(t, sess, rows)

			id := tt.addressID
			if tt.wantErr == model.ErrCartEmpty {
				// A valid address so that only the cart is left to fail.
				own := f.address.ID
				id = &own
			}
			f.addresses.On("ListByUser", mock.Anything, f.userID).Return([]model.UserAddress{f.address}, nil).Maybe()

			order, notice, err := f.assembler.Checkout(ctx, e, id)

			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, model.Failure(tt.wantErr), notice)
			f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
			f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
			f.orders.AssertNotCalled(t, "CreateOrderLines", mock.Anything, mock.Anything, mock.Anything)
			assert.Len(t, e.Lines(), tt.rows)
		})
	}
}

func TestAssembler_Checkout_StepFailures(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(f *fixture, tx *repomock.Tx, row model.CartRow)
		wantErr    *model.DomainError
		rolledBack bool
	}{
		{
			name: "Begin fails",
			setup: func(f *fixture, tx *repomock.Tx, row model.CartRow) {
				f.orders.On("BeginTx", mock.Anything).Return(nil, errors.New("pool exhausted"))
			},
			wantErr: model.ErrCheckoutFailed,
		},
		{
			name: "Row lock fails",
			setup: func(f *fixture, tx *repomock.Tx, row model.CartRow) {
				f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
				f.carts.On("LockRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{row.ID}).Return(nil, errors.New("lock timeout"))
				tx.On("Rollback", mock.Anything).Return(nil)
			},
			wantErr:    model.ErrCheckoutFailed,
			rolledBack: true,
		},
		{
			name: "Order insert fails",
			setup: func(f *fixture, tx *repomock.Tx, row model.CartRow) {
				f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
				f.carts.On("LockRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{row.ID}).Return([]model.CartRow{row}, nil)
				f.orders.On("CreateOrder", mock.Anything, tx, mock.Anything).Return(errors.New("constraint"))
				tx.On("Rollback", mock.Anything).Return(nil)
			},
			wantErr:    model.ErrCheckoutFailed,
			rolledBack: true,
		},
		{
			name: "Line insert fails",
			setup: func(f *fixture, tx *repomock.Tx, row model.CartRow) {
				f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
				f.carts.On("LockRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{row.ID}).Return([]model.CartRow{row}, nil)
				f.orders.On("CreateOrder", mock.Anything, tx, mock.Anything).Return(nil)
				f.orders.On("CreateOrderLines", mock.Anything, tx, mock.Anything).Return(errors.New("constraint"))
				tx.On("Rollback", mock.Anything).Return(nil)
			},
			wantErr:    model.ErrCheckoutFailed,
			rolledBack: true,
		},
		{
			name: "Rollback fails after line insert",
			setup: func(f *fixture, tx *repomock.Tx, row model.CartRow) {
				f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
				f.carts.On("LockRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{row.ID}).Return([]model.CartRow{row}, nil)
				f.orders.On("CreateOrder", mock.Anything, tx, mock.Anything).Return(nil)
				f.orders.On("CreateOrderLines", mock.Anything, tx, mock.Anything).Return(errors.New("constraint"))
				tx.On("Rollback", mock.Anything).Return(errors.New("connection reset"))
			},
			wantErr:    model.ErrCheckoutPartial,
			rolledBack: true,
		},
		{
			name: "Cart delete fails",
			setup: func(f *fixture, tx *repomock.Tx, row model.CartRow) {
				f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
				f.carts.On("LockRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{row.ID}).Return([]model.CartRow{row}, nil)
				f.orders.On("CreateOrder", mock.Anything, tx, mock.Anything).Return(nil)
				f.orders.On("CreateOrderLines", mock.Anything, tx, mock.Anything).Return(nil)
				f.carts.On("DeleteRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{row.ID}).Return(errors.New("timeout"))
				tx.On("Rollback", mock.Anything).Return(nil)
			},
			wantErr:    model.ErrCheckoutFailed,
			rolledBack: true,
		},
		{
			name: "Commit fails",
			setup: func(f *fixture, tx *repomock.Tx, row model.CartRow) {
				f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
				f.carts.On("LockRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{row.ID}).Return([]model.CartRow{row}, nil)
				f.orders.On("CreateOrder", mock.Anything, tx, mock.Anything).Return(nil)
				f.orders.On("CreateOrderLines", mock.Anything, tx, mock.Anything).Return(nil)
				f.carts.On("DeleteRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{row.ID}).Return(nil)
				tx.On("Commit", mock.Anything).Return(errors.New("serialization failure"))
			},
			wantErr: model.ErrCheckoutFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			row := cartRow(f.userID, 1, 2, 50)
			e := f.engine(t, session.ForUser(f.userID), []model.CartRow{row})

			tx := &repomock.Tx{}
			f.addresses.On("ListByUser", mock.Anything, f.userID).Return([]model.UserAddress{f.address}, nil)
			tt.setup(f, tx, row)

			addressID := f.address.ID
			order, notice, err := f.assembler.Checkout(ctx, e, &addressID)

			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, model.NoticeDestructive, notice.Kind)
			assert.Equal(t, tt.rolledBack, tx.RolledBack)
			// The cart is untouched on any failure.
			assert.Len(t, e.Lines(), 1)
			assert.Equal(t, 2, e.TotalQuantity())
		})
	}
}

func TestAssembler_Checkout_AddressLookupFails(t *testing.T) {
	f := newFixture()
	e := f.engine(t, session.ForUser(f.userID), []model.CartRow{cartRow(f.userID, 1, 1, 10)})
	f.addresses.On("ListByUser", mock.Anything, f.userID).Return(nil, errors.New("down"))

	addressID := f.address.ID
	_, _, err := f.assembler.Checkout(context.Background(), e, &addressID)

	assert.ErrorIs(t, err, model.ErrCheckoutFailed)
	f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestAssembler_Checkout_OrdersOnlyRowsItShowed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	kept := cartRow(f.userID, 1, 2, 50)
	gone := cartRow(f.userID, 2, 1, 30)
	e := f.engine(t, session.ForUser(f.userID), []model.CartRow{kept, gone})

	// Since the cart was opened another device raised the quantity of one row
	// and removed the other. Rows it added are not part of the lock request.
	current := kept
	current.Quantity = 3

	tx := &repomock.Tx{}
	f.addresses.On("ListByUser", mock.Anything, f.userID).Return([]model.UserAddress{f.address}, nil)
	f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
	f.carts.On("LockRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{kept.ID, gone.ID}).Return([]model.CartRow{current}, nil)
	f.orders.On("CreateOrder", mock.Anything, tx, mock.MatchedBy(func(o *model.Order) bool {
		return o.TotalAmount.Equal(decimal.NewFromInt(150))
	})).Return(nil)
	f.orders.On("CreateOrderLines", mock.Anything, tx, mock.MatchedBy(func(lines []model.OrderLine) bool {
		return len(lines) == 1 && lines[0].ProductID == 1 && lines[0].Quantity == 3
	})).Return(nil)
	f.carts.On("DeleteRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{kept.ID}).Return(nil)
	tx.On("Commit", mock.Anything).Return(nil)

	addressID := f.address.ID
	order, _, err := f.assembler.Checkout(ctx, e, &addressID)

	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "150", order.TotalAmount.String())
	f.carts.AssertExpectations(t)
	f.carts.AssertNotCalled(t, "DeleteAllForUser", mock.Anything, mock.Anything)
}

func TestAssembler_Checkout_RowsGoneBeforeLock(t *testing.T) {
	f := newFixture()
	row := cartRow(f.userID, 1, 1, 10)
	e := f.engine(t, session.ForUser(f.userID), []model.CartRow{row})

	tx := &repomock.Tx{}
	f.addresses.On("ListByUser", mock.Anything, f.userID).Return([]model.UserAddress{f.address}, nil)
	f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
	f.carts.On("LockRowsTx", mock.Anything, tx, f.userID, []uuid.UUID{row.ID}).Return([]model.CartRow{}, nil)
	tx.On("Rollback", mock.Anything).Return(nil)

	addressID := f.address.ID
	order, notice, err := f.assembler.Checkout(context.Background(), e, &addressID)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, model.ErrCartEmpty)
	assert.Equal(t, model.Failure(model.ErrCartEmpty), notice)
	assert.True(t, tx.RolledBack)
	assert.Empty(t, e.Lines())
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}
