package checkout

import (
	"context"
	"fmt"

	"qahwa/internal/model"
	"qahwa/internal/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Cancel moves a pending order of the session's user to cancelled and returns
// the user's orders as re-read from the gateway.
//
// The order is re-read first so that a missing, foreign or already advanced
// order is refused with its own message. The write itself is guarded by owner
// and status, so an order advanced in between is refused too.
func (a *Assembler) Cancel(ctx context.Context, sess session.Session, orderID uuid.UUID) ([]model.Order, model.Notice, error) {
	ctx, span := a.tracer.Start(ctx, "checkout.cancel_order")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID.String()))

	refuse := func(de *model.DomainError) ([]model.Order, model.Notice, error) {
		span.SetStatus(codes.Error, de.Code)
		a.logger.Debug().Str("order_id", orderID.String()).Str("code", de.Code).Msg("cancellation refused")
		return nil, model.Failure(de), de
	}
	fail := func(cause error) ([]model.Order, model.Notice, error) {
		span.RecordError(cause)
		span.SetStatus(codes.Error, model.ErrCodeCancelFailed)
		a.logger.Error().Err(cause).Str("order_id", orderID.String()).Msg("failed to cancel order")
		de := model.ErrCancelFailed.WithCause(cause)
		return nil, model.Failure(de), de
	}

	if !sess.Authenticated() {
		return refuse(model.ErrNotAuthenticated)
	}
	userID := *sess.UserID

	order, err := a.orders.GetByID(ctx, orderID)
	if err != nil {
		return fail(err)
	}
	if de := checkCancellable(order, userID); de != nil {
		return refuse(de)
	}

	updated, err := a.orders.UpdateStatus(ctx, orderID, userID, model.OrderStatusPending, model.OrderStatusCancelled)
	if err != nil {
		return fail(err)
	}
	if !updated {
		// Lost a race with the backend; report what the order became.
		current, err := a.orders.GetByID(ctx, orderID)
		if err != nil {
			return fail(err)
		}
		if de := checkCancellable(current, userID); de != nil {
			return refuse(de)
		}
		return fail(fmt.Errorf("order %s still pending after guarded update", orderID))
	}

	a.metrics.OrdersCancelled.Add(ctx, 1)
	a.logger.Info().
		Str("order_id", orderID.String()).
		Str("user_id", userID.String()).
		Msg("order cancelled")

	orders, err := a.orders.ListByUser(ctx, userID)
	if err != nil {
		// The cancellation stands; only the refreshed list is missing.
		a.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to reload orders after cancellation")
		return nil, model.Success(model.MsgOrderCancel), nil
	}

	return orders, model.Success(model.MsgOrderCancel), nil
}

// checkCancellable returns the refusal for order, or nil when userID may cancel it.
func checkCancellable(order *model.Order, userID uuid.UUID) *model.DomainError {
	switch {
	case order == nil:
		return model.ErrOrderNotFound
	case order.UserID != userID:
		return model.ErrOrderNotOwned
	case !order.Status.CanTransitionTo(model.OrderStatusCancelled):
		return model.ErrOrderNotPending.WithMessage(
			fmt.Sprintf("%s (%s)", model.MsgOrderNotPending, order.Status.LabelAR()))
	}
	return nil
}
