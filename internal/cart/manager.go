package cart

import (
	"context"
	"errors"
	"time"

	"qahwa/internal/guest"
	"qahwa/internal/model"
	"qahwa/internal/repository"
	"qahwa/internal/session"
	"qahwa/internal/telemetry"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Manager opens cart engines for sessions. It owns the collaborators shared by
// every cart: the remote gateway, guest storage and the per-line lock table.
type Manager struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	guests   guest.Storage
	locks    *lockTable
	metrics  *telemetry.Metrics
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewManager creates a new cart manager.
func NewManager(
	carts repository.CartRepository,
	products repository.ProductRepository,
	guests guest.Storage,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
) *Manager {
	return &Manager{
		carts:    carts,
		products: products,
		guests:   guests,
		locks:    newLockTable(),
		metrics:  metrics,
		tracer:   telemetry.Tracer("cart"),
		logger:   logger.With().Str("service", "cart").Logger(),
	}
}

// Open returns the engine of sess with its lines loaded. The mode follows the
// session: authenticated sessions use the remote gateway, guests use guest
// storage. A guest cart is never merged into a user cart here.
func (m *Manager) Open(ctx context.Context, sess session.Session) (*Engine, error) {
	ctx, span := m.tracer.Start(ctx, "cart.open")
	defer span.End()

	e := &Engine{manager: m, sess: sess}

	var (
		lines []model.CartLine
		err   error
	)
	switch {
	case sess.Authenticated():
		e.mode = ModeRemote
		lines, err = m.loadRemote(ctx, sess)
	case sess.GuestID != "":
		e.mode = ModeGuest
		lines, err = m.guests.Load(ctx, sess.GuestID)
	default:
		return nil, model.ErrMissingSession
	}
	span.SetAttributes(attribute.String("cart.mode", string(e.mode)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		m.logger.Error().Err(err).
			Str("subject", sess.Subject()).
			Str("mode", string(e.mode)).
			Msg("failed to load cart")
		return nil, model.ErrLoadFailed.WithCause(err)
	}

	e.store = newStore(lines)
	m.metrics.CartLines.Record(ctx, int64(e.store.Len()))

	return e, nil
}

func (m *Manager) loadRemote(ctx context.Context, sess session.Session) ([]model.CartLine, error) {
	start := time.Now()
	rows, err := m.carts.ListByUser(ctx, *sess.UserID)
	m.metrics.RecordGatewayCall(ctx, "SELECT", "cart_items", start, err == nil)
	if err != nil {
		return nil, err
	}

	lines := make([]model.CartLine, len(rows))
	for i := range rows {
		lines[i] = rows[i].Line()
	}
	return lines, nil
}

// Merge moves the cart of guestID into the remote cart of the authenticated
// sess. Quantities of products already in the user cart are added together and
// the guest cart is emptied. Lines that could not be moved stay in guest storage.
func (m *Manager) Merge(ctx context.Context, sess session.Session, guestID string) (*Engine, model.Notice, error) {
	ctx, span := m.tracer.Start(ctx, "cart.merge")
	defer span.End()

	if !sess.Authenticated() {
		return nil, model.Failure(model.ErrNotAuthenticated), model.ErrNotAuthenticated
	}
	if !session.ValidGuestID(guestID) {
		return nil, model.Failure(model.ErrGuestSession), model.ErrGuestSession
	}

	unlock := m.locks.lock(session.ForGuest(guestID).Subject())
	defer unlock()

	guestLines, err := m.guests.Load(ctx, guestID)
	if err != nil {
		m.logger.Error().Err(err).Str("guest_id", guestID).Msg("failed to load guest cart for merge")
		de := model.ErrMergeFailed.WithCause(err)
		return nil, model.Failure(de), de
	}
	if len(guestLines) == 0 {
		return nil, model.Failure(model.ErrGuestSession), model.ErrGuestSession
	}

	guestLines, err = m.dropDeletedProducts(ctx, guestLines)
	if err != nil {
		m.logger.Error().Err(err).Str("guest_id", guestID).Msg("failed to check guest cart products")
		de := model.ErrMergeFailed.WithCause(err)
		return nil, model.Failure(de), de
	}

	e, err := m.Open(ctx, sess)
	if err != nil {
		return nil, model.Failure(err), err
	}

	for i, line := range guestLines {
		unlockLine := m.locks.lock(lineKey(sess.Subject(), line.ProductID))
		err := e.addRemote(ctx, line.ProductID, line.Quantity, line.UnitPrice, line.Product)
		unlockLine()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "merge failed")
			m.logger.Error().Err(err).
				Str("guest_id", guestID).
				Int64("product_id", line.ProductID).
				Msg("failed to merge guest cart line")

			if saveErr := m.guests.Save(ctx, guestID, guestLines[i:]); saveErr != nil {
				m.logger.Error().Err(saveErr).Str("guest_id", guestID).Msg("failed to keep unmerged guest lines")
			}
			m.metrics.RecordCartMutation(ctx, "merge", string(ModeRemote), false)

			de := model.ErrMergeFailed.WithCause(err)
			return e, model.Failure(de), de
		}
	}

	if err := m.guests.Delete(ctx, guestID); err != nil {
		// Lines are already in the user cart; a stale guest cart is harmless.
		m.logger.Warn().Err(err).Str("guest_id", guestID).Msg("failed to delete merged guest cart")
	}

	m.metrics.RecordCartMutation(ctx, "merge", string(ModeRemote), true)
	m.logger.Info().
		Str("subject", sess.Subject()).
		Str("guest_id", guestID).
		Int("lines", len(guestLines)).
		Msg("guest cart merged")

	return e, model.Success(model.MsgMerged), nil
}

// dropDeletedProducts removes lines whose product row no longer exists, since
// such lines cannot be stored remotely.
func (m *Manager) dropDeletedProducts(ctx context.Context, lines []model.CartLine) ([]model.CartLine, error) {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	products, err := m.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	exists := make(map[int64]bool, len(products))
	for _, p := range products {
		exists[p.ID] = true
	}

	kept := lines[:0:0]
	for _, l := range lines {
		if !exists[l.ProductID] {
			m.logger.Warn().Int64("product_id", l.ProductID).Msg("dropping guest line of deleted product")
			continue
		}
		kept = append(kept, l)
	}
	return kept, nil
}

// gatewayCall times fn and records it as one gateway call.
func (m *Manager) gatewayCall(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	ok := err == nil || errors.Is(err, repository.ErrCartRowExists)
	m.metrics.RecordGatewayCall(ctx, op, "cart_items", start, ok)
	return err
}
