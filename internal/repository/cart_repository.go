package repository

import (
	"context"
	"errors"
	"fmt"

	"qahwa/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrCartRowNotFound is returned when a row addressed by id no longer exists.
var ErrCartRowNotFound = errors.New("cart row not found")

const uniqueViolation = "23505"

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

const cartRowColumns = `id, user_id, product_id, quantity, unit_price, created_at, updated_at`

func scanCartRow(row pgx.Row, c *model.CartRow) error {
	return row.Scan(&c.ID, &c.UserID, &c.ProductID, &c.Quantity, &c.UnitPrice, &c.CreatedAt, &c.UpdatedAt)
}

// ListByUser returns every cart row of the user with its related product when present.
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartRow, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.unit_price, c.created_at, c.updated_at,
			p.id, p.name_ar, p.image_ref
		FROM cart_items c
		LEFT JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query cart rows")
		return nil, fmt.Errorf("failed to query cart rows: %w", err)
	}
	defer rows.Close()

	result := []model.CartRow{}
	for rows.Next() {
		var (
			c         model.CartRow
			productID *int64
			nameAR    *string
			imageRef  *string
		)
		err := rows.Scan(&c.ID, &c.UserID, &c.ProductID, &c.Quantity, &c.UnitPrice, &c.CreatedAt, &c.UpdatedAt,
			&productID, &nameAR, &imageRef)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart row")
			return nil, fmt.Errorf("failed to scan cart row: %w", err)
		}
		if productID != nil {
			c.Product = &model.ProductSnapshot{ID: *productID}
			if nameAR != nil {
				c.Product.NameAR = *nameAR
			}
			if imageRef != nil {
				c.Product.ImageRef = *imageRef
			}
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart rows")
		return nil, fmt.Errorf("error iterating cart rows: %w", err)
	}

	return result, nil
}

// FindByProduct returns the user's row for the product, or nil.
func (r *cartRepository) FindByProduct(ctx context.Context, userID uuid.UUID, productID int64) (*model.CartRow, error) {
	query := `
		SELECT ` + cartRowColumns + `
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`

	var c model.CartRow
	err := scanCartRow(r.pool.QueryRow(ctx, query, userID, productID), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Int64("product_id", productID).
			Msg("failed to query cart row")
		return nil, fmt.Errorf("failed to query cart row: %w", err)
	}

	return &c, nil
}

// Insert creates a row. Returns ErrCartRowExists on a duplicate product.
func (r *cartRepository) Insert(ctx context.Context, userID uuid.UUID, productID int64, quantity int, unitPrice decimal.Decimal) (*model.CartRow, error) {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + cartRowColumns

	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	var c model.CartRow
	err := scanCartRow(r.pool.QueryRow(ctx, query, userID, productID, quantity, unitPrice, total), &c)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Debug().
				Str("user_id", userID.String()).
				Int64("product_id", productID).
				Msg("cart row already exists")
			return nil, ErrCartRowExists
		}
		r.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Int64("product_id", productID).
			Msg("failed to insert cart row")
		return nil, fmt.Errorf("failed to insert cart row: %w", err)
	}

	r.logger.Debug().
		Str("row_id", c.ID.String()).
		Int64("product_id", productID).
		Msg("cart row inserted")

	return &c, nil
}

// Increment atomically adds delta to the row quantity and returns the updated row.
func (r *cartRepository) Increment(ctx context.Context, rowID uuid.UUID, delta int) (*model.CartRow, error) {
	query := `
		UPDATE cart_items
		SET quantity = quantity + $2,
			total_price = unit_price * (quantity + $2),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + cartRowColumns

	var c model.CartRow
	err := scanCartRow(r.pool.QueryRow(ctx, query, rowID, delta), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartRowNotFound
		}
		r.logger.Error().Err(err).Str("row_id", rowID.String()).Msg("failed to increment cart row")
		return nil, fmt.Errorf("failed to increment cart row: %w", err)
	}

	return &c, nil
}

// UpdateQuantity sets the row quantity.
func (r *cartRepository) UpdateQuantity(ctx context.Context, rowID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $2,
			total_price = unit_price * $2,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, rowID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("row_id", rowID.String()).Msg("failed to update cart row")
		return fmt.Errorf("failed to update cart row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartRowNotFound
	}

	return nil
}

// Delete removes a single row. Returns ErrCartRowNotFound when the row is gone.
func (r *cartRepository) Delete(ctx context.Context, rowID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, rowID)
	if err != nil {
		r.logger.Error().Err(err).Str("row_id", rowID.String()).Msg("failed to delete cart row")
		return fmt.Errorf("failed to delete cart row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartRowNotFound
	}
	return nil
}

// DeleteAllForUser removes every row of the user.
func (r *cartRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	r.logger.Debug().
		Str("user_id", userID.String()).
		Int64("deleted", tag.RowsAffected()).
		Msg("cart cleared")

	return nil
}

// LockRowsTx locks the listed rows of the user within tx and returns the ones
// that still exist, with their current quantities.
func (r *cartRepository) LockRowsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, rowIDs []uuid.UUID) ([]model.CartRow, error) {
	query := `
		SELECT ` + cartRowColumns + `
		FROM cart_items
		WHERE user_id = $1 AND id = ANY($2)
		ORDER BY created_at, id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, userID, rowIDs)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to lock cart rows")
		return nil, fmt.Errorf("failed to lock cart rows: %w", err)
	}
	defer rows.Close()

	result := []model.CartRow{}
	for rows.Next() {
		var c model.CartRow
		if err := scanCartRow(rows, &c); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan locked cart row")
			return nil, fmt.Errorf("failed to scan cart row: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating locked cart rows")
		return nil, fmt.Errorf("error iterating cart rows: %w", err)
	}

	return result, nil
}

// DeleteRowsTx removes the listed rows of the user within tx. Rows not listed
// are kept.
func (r *cartRepository) DeleteRowsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, rowIDs []uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND id = ANY($2)`, userID, rowIDs)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to delete ordered cart rows")
		return fmt.Errorf("failed to delete cart rows: %w", err)
	}

	r.logger.Debug().
		Str("user_id", userID.String()).
		Int64("deleted", tag.RowsAffected()).
		Msg("ordered cart rows deleted")

	return nil
}
