package cart

import (
	"context"
	"errors"

	"qahwa/internal/model"
	"qahwa/internal/repository"
	"qahwa/internal/session"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine applies cart mutations for one session. In remote mode the local
// mirror changes only after the gateway confirmed the write; in guest mode the
// whole cart is rewritten to guest storage on every mutation.
type Engine struct {
	manager *Manager
	sess    session.Session
	mode    Mode
	store   *Store
}

// Mode returns the backing mode chosen when the engine was opened.
func (e *Engine) Mode() Mode { return e.mode }

// Session returns the session the engine acts for.
func (e *Engine) Session() session.Session { return e.sess }

// Lines returns the current cart lines.
func (e *Engine) Lines() []model.CartLine { return e.store.Lines() }

// TotalQuantity returns the sum of line quantities.
func (e *Engine) TotalQuantity() int { return e.store.TotalQuantity() }

// TotalPrice returns the freshly computed cart total.
func (e *Engine) TotalPrice() decimal.Decimal { return e.store.TotalPrice() }

// View returns the read model of the cart.
func (e *Engine) View() model.CartView {
	return model.CartView{
		Mode:          string(e.mode),
		Lines:         e.store.Lines(),
		TotalQuantity: e.store.TotalQuantity(),
		TotalPrice:    e.store.TotalPrice(),
	}
}

// ResetLocal empties the local mirror without touching storage. Checkout uses
// it once the remote rows are gone.
func (e *Engine) ResetLocal() {
	e.store.clear()
}

// Add puts quantity units of productID into the cart. Adding a product that is
// already present increases its quantity.
func (e *Engine) Add(ctx context.Context, productID int64, quantity int) (model.Notice, error) {
	ctx, span := e.start(ctx, "cart.add", productID)
	defer span.End()

	if quantity < 1 {
		return e.reject(ctx, span, "add", model.ErrInvalidQuantity)
	}
	if quantity > model.MaxLineQuantity {
		return e.reject(ctx, span, "add", model.ErrQuantityTooLarge)
	}
	if line, ok := e.store.Line(productID); ok && line.Quantity > model.MaxLineQuantity-quantity {
		return e.reject(ctx, span, "add", model.ErrQuantityTooLarge)
	}

	product, err := e.manager.products.GetByID(ctx, productID)
	if err != nil {
		return e.fail(ctx, span, "add", model.ErrAddFailed, err)
	}
	if product == nil {
		return e.reject(ctx, span, "add", model.ErrProductNotFound)
	}
	if !product.Available {
		return e.reject(ctx, span, "add", model.ErrProductUnavailable)
	}

	if e.mode == ModeGuest {
		err = e.mutateGuest(ctx, func(s *Store) error {
			line, ok := s.Line(productID)
			if !ok {
				line = model.CartLine{ProductID: productID, UnitPrice: product.Price}
			}
			if line.Quantity > model.MaxLineQuantity-quantity {
				return model.ErrQuantityTooLarge
			}
			line.Quantity += quantity
			line.Product = product.Snapshot()
			s.put(line)
			return nil
		})
	} else {
		unlock := e.manager.locks.lock(lineKey(e.sess.Subject(), productID))
		err = e.addRemote(ctx, productID, quantity, product.Price, product.Snapshot())
		unlock()
	}
	if errors.Is(err, model.ErrQuantityTooLarge) {
		return e.reject(ctx, span, "add", model.ErrQuantityTooLarge)
	}
	if err != nil {
		return e.fail(ctx, span, "add", model.ErrAddFailed, err)
	}

	return e.succeed(ctx, "add", model.MsgAdded), nil
}

// addRemote increments the user's row for productID or inserts it, then mirrors
// the confirmed row locally. Callers hold the line lock.
func (e *Engine) addRemote(ctx context.Context, productID int64, quantity int, unitPrice decimal.Decimal, snapshot *model.ProductSnapshot) error {
	m := e.manager
	userID := *e.sess.UserID

	var existing *model.CartRow
	err := m.gatewayCall(ctx, "SELECT", func() error {
		var err error
		existing, err = m.carts.FindByProduct(ctx, userID, productID)
		return err
	})
	if err != nil {
		return err
	}

	var row *model.CartRow
	if existing == nil {
		err = m.gatewayCall(ctx, "INSERT", func() error {
			var err error
			row, err = m.carts.Insert(ctx, userID, productID, quantity, unitPrice)
			return err
		})
		if errors.Is(err, repository.ErrCartRowExists) {
			// Another session of the same user inserted the row first.
			err = m.gatewayCall(ctx, "SELECT", func() error {
				var err error
				existing, err = m.carts.FindByProduct(ctx, userID, productID)
				return err
			})
			if err == nil && existing == nil {
				err = repository.ErrCartRowNotFound
			}
		}
		if err != nil {
			return err
		}
	}

	if existing != nil {
		if existing.Quantity > model.MaxLineQuantity-quantity {
			return model.ErrQuantityTooLarge
		}
		err = m.gatewayCall(ctx, "UPDATE", func() error {
			var err error
			row, err = m.carts.Increment(ctx, existing.ID, quantity)
			return err
		})
		if err != nil {
			return err
		}
	}

	line := row.Line()
	line.Product = snapshot
	e.store.put(line)
	return nil
}

// UpdateQuantity sets the quantity of productID. A quantity below one removes
// the line; one above MaxLineQuantity is rejected.
func (e *Engine) UpdateQuantity(ctx context.Context, productID int64, quantity int) (model.Notice, error) {
	if quantity <= 0 {
		return e.Remove(ctx, productID)
	}

	ctx, span := e.start(ctx, "cart.update_quantity", productID)
	defer span.End()

	if quantity > model.MaxLineQuantity {
		return e.reject(ctx, span, "update", model.ErrQuantityTooLarge)
	}

	var err error
	if e.mode == ModeGuest {
		err = e.mutateGuest(ctx, func(s *Store) error {
			line, ok := s.Line(productID)
			if !ok {
				return model.ErrLineNotFound
			}
			line.Quantity = quantity
			s.put(line)
			return nil
		})
	} else {
		unlock := e.manager.locks.lock(lineKey(e.sess.Subject(), productID))
		err = e.updateRemote(ctx, productID, quantity)
		unlock()
	}
	if err != nil {
		if errors.Is(err, model.ErrLineNotFound) {
			return e.reject(ctx, span, "update", model.ErrLineNotFound)
		}
		return e.fail(ctx, span, "update", model.ErrUpdateFailed, err)
	}

	return e.succeed(ctx, "update", model.MsgUpdated), nil
}

func (e *Engine) updateRemote(ctx context.Context, productID int64, quantity int) error {
	line, ok := e.store.Line(productID)
	if !ok || line.RowID == nil {
		return model.ErrLineNotFound
	}

	err := e.manager.gatewayCall(ctx, "UPDATE", func() error {
		return e.manager.carts.UpdateQuantity(ctx, *line.RowID, quantity)
	})
	if errors.Is(err, repository.ErrCartRowNotFound) {
		// The row is gone remotely, so the mirror must drop it too.
		e.store.remove(productID)
		return model.ErrLineNotFound
	}
	if err != nil {
		return err
	}

	line.Quantity = quantity
	e.store.put(line)
	return nil
}

// Remove deletes the line of productID. The local line goes away only after
// storage confirmed the removal.
func (e *Engine) Remove(ctx context.Context, productID int64) (model.Notice, error) {
	ctx, span := e.start(ctx, "cart.remove", productID)
	defer span.End()

	var err error
	if e.mode == ModeGuest {
		err = e.mutateGuest(ctx, func(s *Store) error {
			if _, ok := s.Line(productID); !ok {
				return model.ErrLineNotFound
			}
			s.remove(productID)
			return nil
		})
	} else {
		unlock := e.manager.locks.lock(lineKey(e.sess.Subject(), productID))
		err = e.removeRemote(ctx, productID)
		unlock()
	}
	if err != nil {
		if errors.Is(err, model.ErrLineNotFound) {
			return e.reject(ctx, span, "remove", model.ErrLineNotFound)
		}
		return e.fail(ctx, span, "remove", model.ErrRemoveFailed, err)
	}

	return e.succeed(ctx, "remove", model.MsgRemoved), nil
}

func (e *Engine) removeRemote(ctx context.Context, productID int64) error {
	line, ok := e.store.Line(productID)
	if !ok || line.RowID == nil {
		return model.ErrLineNotFound
	}

	err := e.manager.gatewayCall(ctx, "DELETE", func() error {
		return e.manager.carts.Delete(ctx, *line.RowID)
	})
	if errors.Is(err, repository.ErrCartRowNotFound) {
		// Already removed by another session.
		e.store.remove(productID)
		return model.ErrLineNotFound
	}
	if err != nil {
		return err
	}

	e.store.remove(productID)
	return nil
}

// Clear removes every line of the cart.
func (e *Engine) Clear(ctx context.Context) (model.Notice, error) {
	ctx, span := e.start(ctx, "cart.clear", 0)
	defer span.End()

	m := e.manager
	var err error
	if e.mode == ModeGuest {
		unlock := m.locks.lock(e.sess.Subject())
		err = m.guests.Delete(ctx, e.sess.GuestID)
		unlock()
	} else {
		err = m.gatewayCall(ctx, "DELETE", func() error {
			return m.carts.DeleteAllForUser(ctx, *e.sess.UserID)
		})
	}
	if err != nil {
		return e.fail(ctx, span, "clear", model.ErrClearFailed, err)
	}

	e.store.clear()
	return e.succeed(ctx, "clear", model.MsgCleared), nil
}

// mutateGuest applies fn to the freshest guest cart and saves the result. The
// guest's whole cart is locked because storage is rewritten wholesale.
func (e *Engine) mutateGuest(ctx context.Context, fn func(*Store) error) error {
	m := e.manager

	unlock := m.locks.lock(e.sess.Subject())
	defer unlock()

	current, err := m.guests.Load(ctx, e.sess.GuestID)
	if err != nil {
		return err
	}

	next := newStore(current)
	if err := fn(next); err != nil {
		return err
	}

	if err := m.guests.Save(ctx, e.sess.GuestID, next.Lines()); err != nil {
		return err
	}

	e.store.reset(next.Lines())
	return nil
}

func (e *Engine) start(ctx context.Context, name string, productID int64) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("cart.mode", string(e.mode))}
	if productID != 0 {
		attrs = append(attrs, attribute.Int64("product.id", productID))
	}
	return e.manager.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (e *Engine) succeed(ctx context.Context, op, message string) model.Notice {
	e.manager.metrics.RecordCartMutation(ctx, op, string(e.mode), true)
	return model.Success(message)
}

// reject reports a validation failure raised before any storage call.
func (e *Engine) reject(ctx context.Context, span trace.Span, op string, de *model.DomainError) (model.Notice, error) {
	span.SetStatus(codes.Error, de.Code)
	e.manager.metrics.RecordCartMutation(ctx, op, string(e.mode), false)
	e.manager.logger.Debug().
		Str("subject", e.sess.Subject()).
		Str("op", op).
		Str("code", de.Code).
		Msg("cart mutation rejected")
	return model.Failure(de), de
}

// fail reports a storage failure. The local mirror is left as it was.
func (e *Engine) fail(ctx context.Context, span trace.Span, op string, de *model.DomainError, cause error) (model.Notice, error) {
	span.RecordError(cause)
	span.SetStatus(codes.Error, de.Code)
	e.manager.metrics.RecordCartMutation(ctx, op, string(e.mode), false)
	e.manager.logger.Error().Err(cause).
		Str("subject", e.sess.Subject()).
		Str("mode", string(e.mode)).
		Str("op", op).
		Msg("cart mutation failed")

	err := de.WithCause(cause)
	return model.Failure(err), err
}
