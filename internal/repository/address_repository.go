package repository

import (
	"context"
	"fmt"

	"qahwa/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

// ListByUser returns the user's addresses, default first.
func (r *addressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.UserAddress, error) {
	query := `
		SELECT id, user_id, governorate, city, street, notes, is_default, created_at
		FROM user_addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.UserAddress{}
	for rows.Next() {
		var a model.UserAddress
		err := rows.Scan(&a.ID, &a.UserID, &a.Governorate, &a.City, &a.Street, &a.Notes, &a.IsDefault, &a.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan address row")
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating address rows")
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// Create inserts a new address. A default address clears the previous default
// in the same transaction.
func (r *addressRepository) Create(ctx context.Context, a *model.UserAddress) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if a.IsDefault {
		if err := r.clearDefault(ctx, tx, a.UserID); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO user_addresses (id, user_id, governorate, city, street, notes, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err = tx.QueryRow(ctx, query, a.ID, a.UserID, a.Governorate, a.City, a.Street, a.Notes, a.IsDefault).Scan(&a.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", a.UserID.String()).Msg("failed to insert address")
		return fmt.Errorf("failed to insert address: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit address")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SetDefault makes the address the user's only default.
func (r *addressRepository) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := r.clearDefault(ctx, tx, userID); err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE user_addresses SET is_default = TRUE WHERE id = $1 AND user_id = $2`,
		addressID, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("address_id", addressID.String()).Msg("failed to set default address")
		return false, fmt.Errorf("failed to set default address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Rolled back by the deferred call; the previous default stays.
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit default address")
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug().
		Str("user_id", userID.String()).
		Str("address_id", addressID.String()).
		Msg("default address changed")

	return true, nil
}

func (r *addressRepository) clearDefault(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE user_addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`,
		userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear default address")
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}
