package guest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qahwa/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const keyPrefix = "cart:guest:"

// RedisStorage keeps each guest cart as one JSON array under cart:guest:<id>.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// NewRedisStorage creates a Redis-backed guest storage. Saved carts expire
// after ttl without activity.
func NewRedisStorage(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisStorage {
	return &RedisStorage{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "guest_storage").Logger(),
	}
}

// record is the persisted shape of a cart line. The remote row id never
// applies to guest carts.
type record struct {
	ProductID int64                  `json:"productId"`
	Quantity  int                    `json:"quantity"`
	UnitPrice string                 `json:"unitPrice"`
	Product   *model.ProductSnapshot `json:"product,omitempty"`
}

func (r record) line() (model.CartLine, error) {
	price, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return model.CartLine{}, fmt.Errorf("invalid unit price %q: %w", r.UnitPrice, err)
	}
	if r.Quantity < 1 || price.IsNegative() {
		return model.CartLine{}, fmt.Errorf("invalid quantity %d or price %s", r.Quantity, price)
	}
	return model.CartLine{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UnitPrice: price,
		Product:   r.Product,
	}, nil
}

func (s *RedisStorage) Load(ctx context.Context, guestID string) ([]model.CartLine, error) {
	raw, err := s.client.Get(ctx, keyPrefix+guestID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.CartLine{}, nil
		}
		s.logger.Error().Err(err).Str("guest_id", guestID).Msg("failed to load guest cart")
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		// A corrupt entry is dropped rather than blocking the guest forever.
		s.logger.Warn().Err(err).Str("guest_id", guestID).Msg("discarding unreadable guest cart")
		return []model.CartLine{}, nil
	}

	lines := make([]model.CartLine, 0, len(records))
	for _, r := range records {
		line, err := r.line()
		if err != nil {
			s.logger.Warn().Err(err).Int64("product_id", r.ProductID).Msg("skipping invalid guest cart line")
			continue
		}
		lines = append(lines, line)
	}

	return lines, nil
}

func (s *RedisStorage) Save(ctx context.Context, guestID string, lines []model.CartLine) error {
	key := keyPrefix + guestID
	if len(lines) == 0 {
		return s.Delete(ctx, guestID)
	}

	records := make([]record, len(lines))
	for i, l := range lines {
		records[i] = record{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.String(),
			Product:   l.Product,
		}
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}

	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("guest_id", guestID).Msg("failed to save guest cart")
		return fmt.Errorf("failed to save guest cart: %w", err)
	}

	s.logger.Debug().Str("guest_id", guestID).Int("lines", len(lines)).Msg("guest cart saved")
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, guestID string) error {
	if err := s.client.Del(ctx, keyPrefix+guestID).Err(); err != nil {
		s.logger.Error().Err(err).Str("guest_id", guestID).Msg("failed to delete guest cart")
		return fmt.Errorf("failed to delete guest cart: %w", err)
	}
	return nil
}
