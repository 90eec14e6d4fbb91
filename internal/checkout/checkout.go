// Package checkout turns carts into orders and cancels pending orders.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qahwa/internal/cart"
	"qahwa/internal/model"
	"qahwa/internal/repository"
	"qahwa/internal/telemetry"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Assembler places and cancels orders.
type Assembler struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	addresses repository.AddressRepository
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewAssembler creates a new order assembler.
func NewAssembler(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	addresses repository.AddressRepository,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
) *Assembler {
	return &Assembler{
		orders:    orders,
		carts:     carts,
		addresses: addresses,
		metrics:   metrics,
		tracer:    telemetry.Tracer("checkout"),
		logger:    logger.With().Str("service", "checkout").Logger(),
	}
}

// Checkout places an order for the cart of e shipped to addressID.
//
// Preconditions are checked in order before anything is written: the session
// is authenticated, an address is selected and belongs to the user, and the
// cart is not empty. The order, its lines and the removal of the cart rows are
// committed together. The ordered rows are locked first, so the order carries
// their current quantities; the local cart is emptied only after the commit.
func (a *Assembler) Checkout(ctx context.Context, e *cart.Engine, addressID *uuid.UUID) (*model.Order, model.Notice, error) {
	ctx, span := a.tracer.Start(ctx, "checkout.place_order")
	defer span.End()

	sess := e.Session()
	if !sess.Authenticated() {
		return a.reject(span, model.ErrNotAuthenticated)
	}
	userID := *sess.UserID

	if addressID == nil || *addressID == uuid.Nil {
		return a.reject(span, model.ErrAddressRequired)
	}

	addresses, err := a.addresses.ListByUser(ctx, userID)
	if err != nil {
		return a.fail(span, model.ErrCheckoutFailed, err, userID)
	}
	var address *model.UserAddress
	for i := range addresses {
		if addresses[i].ID == *addressID {
			address = &addresses[i]
			break
		}
	}
	if address == nil {
		return a.reject(span, model.ErrAddressNotFound)
	}

	cartLines := e.Lines()
	if len(cartLines) == 0 {
		return a.reject(span, model.ErrCartEmpty)
	}

	rowIDs := make([]uuid.UUID, 0, len(cartLines))
	snapshots := make(map[int64]*model.ProductSnapshot, len(cartLines))
	for _, l := range cartLines {
		if l.RowID != nil {
			rowIDs = append(rowIDs, *l.RowID)
		}
		snapshots[l.ProductID] = l.Product
	}

	tx, err := a.orders.BeginTx(ctx)
	if err != nil {
		return a.fail(span, model.ErrCheckoutFailed, err, userID)
	}

	// Only the rows this cart was showing are ordered and removed. Rows added
	// elsewhere since the cart was opened stay in the cart.
	rows, err := a.carts.LockRowsTx(ctx, tx, userID, rowIDs)
	if err != nil {
		return a.abort(ctx, span, tx, userID, fmt.Errorf("failed to lock cart rows: %w", err))
	}
	if len(rows) == 0 {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			a.logger.Warn().Err(rbErr).Msg("failed to rollback empty checkout")
		}
		e.ResetLocal()
		return a.reject(span, model.ErrCartEmpty)
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Shipping:      address.Snapshot(),
		CreatedAt:     now,
		UpdatedAt:     now,
		Lines:         make([]model.OrderLine, len(rows)),
	}
	ordered := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		order.Lines[i] = model.OrderLine{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			UnitPrice: r.UnitPrice,
			Product:   snapshots[r.ProductID],
		}
		ordered[i] = r.ID
	}
	// Derived from the lines being written, never from a cached cart total.
	order.TotalAmount = model.LinesTotal(order.Lines)

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.Int("order.lines", len(order.Lines)),
	)

	if err := a.orders.CreateOrder(ctx, tx, order); err != nil {
		return a.abort(ctx, span, tx, userID, fmt.Errorf("failed to create order: %w", err))
	}
	if err := a.orders.CreateOrderLines(ctx, tx, order.Lines); err != nil {
		return a.abort(ctx, span, tx, userID, fmt.Errorf("failed to create order lines: %w", err))
	}
	if err := a.carts.DeleteRowsTx(ctx, tx, userID, ordered); err != nil {
		return a.abort(ctx, span, tx, userID, fmt.Errorf("failed to clear cart: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		a.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return a.fail(span, model.ErrCheckoutFailed, err, userID)
	}

	e.ResetLocal()
	a.metrics.RecordOrderPlaced(ctx, order.TotalAmount, len(order.Lines))

	a.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Int("line_count", len(order.Lines)).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order created successfully")

	return order, model.Success(model.MsgOrderPlaced), nil
}

// abort rolls tx back after a failed step. A rollback that does not complete
// may leave the order behind and is reported as a partial failure.
func (a *Assembler) abort(ctx context.Context, span trace.Span, tx pgx.Tx, userID uuid.UUID, cause error) (*model.Order, model.Notice, error) {
	if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		a.logger.Error().
			Err(rbErr).
			AnErr("cause", cause).
			Str("user_id", userID.String()).
			Msg("failed to rollback transaction")

		de := model.ErrCheckoutPartial.WithCause(errors.Join(cause, rbErr))
		span.RecordError(de)
		span.SetStatus(codes.Error, de.Code)
		return nil, model.Failure(de), de
	}

	return a.fail(span, model.ErrCheckoutFailed, cause, userID)
}

func (a *Assembler) reject(span trace.Span, de *model.DomainError) (*model.Order, model.Notice, error) {
	span.SetStatus(codes.Error, de.Code)
	a.logger.Debug().Str("code", de.Code).Msg("checkout rejected")
	return nil, model.Failure(de), de
}

func (a *Assembler) fail(span trace.Span, de *model.DomainError, cause error, userID uuid.UUID) (*model.Order, model.Notice, error) {
	span.RecordError(cause)
	span.SetStatus(codes.Error, de.Code)
	a.logger.Error().Err(cause).Str("user_id", userID.String()).Msg("checkout failed")

	err := de.WithCause(cause)
	return nil, model.Failure(err), err
}
