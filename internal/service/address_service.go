package service

import (
	"context"
	"fmt"
	"strings"

	"qahwa/internal/model"
	"qahwa/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// addressService implements AddressService.
type addressService struct {
	addressRepo repository.AddressRepository
	logger      zerolog.Logger
}

// NewAddressService creates a new address service.
func NewAddressService(addressRepo repository.AddressRepository, logger zerolog.Logger) AddressService {
	return &addressService{
		addressRepo: addressRepo,
		logger:      logger.With().Str("service", "address").Logger(),
	}
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]model.UserAddress, error) {
	addresses, err := s.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list addresses")
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *addressService) Create(ctx context.Context, userID uuid.UUID, req *model.AddressRequest) (*model.UserAddress, error) {
	address := &model.UserAddress{
		ID:          uuid.New(),
		UserID:      userID,
		Governorate: strings.TrimSpace(req.Governorate),
		City:        strings.TrimSpace(req.City),
		Street:      strings.TrimSpace(req.Street),
		Notes:       strings.TrimSpace(req.Notes),
		IsDefault:   req.IsDefault,
	}
	if address.Governorate == "" || address.City == "" || address.Street == "" {
		return nil, model.ErrAddressInvalid
	}

	if !address.IsDefault {
		existing, err := s.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		address.IsDefault = len(existing) == 0
	}

	if err := s.addressRepo.Create(ctx, address); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create address")
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	s.logger.Info().
		Str("address_id", address.ID.String()).
		Str("user_id", userID.String()).
		Bool("default", address.IsDefault).
		Msg("address created")

	return address, nil
}

func (s *addressService) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	ok, err := s.addressRepo.SetDefault(ctx, userID, addressID)
	if err != nil {
		s.logger.Error().Err(err).Str("address_id", addressID.String()).Msg("failed to set default address")
		return fmt.Errorf("failed to set default address: %w", err)
	}
	if !ok {
		return model.ErrAddressNotFound
	}
	return nil
}
