package service

import (
	"context"
	"fmt"

	"qahwa/internal/media"
	"qahwa/internal/model"
	"qahwa/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	images    media.Resolver
	logger    zerolog.Logger
}

// NewOrderService creates a new order read service.
func NewOrderService(orderRepo repository.OrderRepository, images media.Resolver, logger zerolog.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		images:    images,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

func (s *orderService) List(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves an order with its lines. Orders of other users are
// reported as not found.
func (s *orderService) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil || order.UserID != userID {
		s.logger.Debug().Str("order_id", orderID.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	for i := range order.Lines {
		media.ResolveSnapshot(ctx, s.images, order.Lines[i].Product)
	}

	return order, nil
}
