package service

import (
	"context"
	"fmt"

	"aroma-shop/internal/model"
	"aroma-shop/internal/repository"

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

// Create adds an address for the user. When the request asks for a default address,
// the previous default is cleared in the same transaction.
func (s *addressService) Create(ctx context.Context, userID int64, req *model.CreateAddressRequest) (_ *model.Address, err error) {
	if req == nil {
		return nil, model.ErrValidation.WithMessage("request body is required")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	address := &model.Address{
		UserID:   userID,
		FullName: req.FullName,
		Phone:    req.Phone,
		Line1:    req.Line1,
		Line2:    req.Line2,
		City:     req.City,
		State:    req.State,
		Pincode:  req.Pincode,
		Country:  req.Country,
	}
	if address.Country == "" {
		address.Country = model.DefaultCountry
	}

	tx, err := s.addressRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	defer func() { rollback(ctx, tx, err, s.logger) }()

	if err = s.addressRepo.LockOwner(ctx, tx, userID); err != nil {
		return nil, err
	}

	if err = s.addressRepo.Create(ctx, tx, address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	if req.IsDefault {
		if err = s.addressRepo.SetDefault(ctx, tx, userID, address.ID, true); err != nil {
			return nil, fmt.Errorf("failed to set default address: %w", err)
		}
		address.IsDefault = true
	}

	if err = commit(ctx, tx); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to commit address creation")
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("address_id", address.ID).
		Bool("is_default", address.IsDefault).
		Msg("address created")

	return address, nil
}

// List returns the user's addresses, default first.
func (s *addressService) List(ctx context.Context, userID int64) ([]model.Address, error) {
	addresses, err := s.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// Get returns one of the user's addresses.
func (s *addressService) Get(ctx context.Context, userID, id int64) (*model.Address, error) {
	address, err := s.addressRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if err := checkOwner(address, userID); err != nil {
		if address != nil {
			s.logger.Warn().Int64("user_id", userID).Int64("address_id", id).Msg("address access by non-owner")
		}
		return nil, err
	}
	return address, nil
}

// Update applies a partial update. Setting is_default to true moves the default flag to
// this address; setting it to false clears only this address.
func (s *addressService) Update(ctx context.Context, userID, id int64, req *model.UpdateAddressRequest) (_ *model.Address, err error) {
	if req == nil || req.Empty() {
		return nil, model.ErrValidation.WithMessage("at least one field must be provided")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.addressRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	defer func() { rollback(ctx, tx, err, s.logger) }()

	if err = s.addressRepo.LockOwner(ctx, tx, userID); err != nil {
		return nil, err
	}

	address, err := s.addressRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	if err = checkOwner(address, userID); err != nil {
		return nil, err
	}

	req.Apply(address)
	if err = s.addressRepo.Update(ctx, tx, address); err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}

	if req.IsDefault != nil {
		if err = s.addressRepo.SetDefault(ctx, tx, userID, id, *req.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to set default address: %w", err)
		}
		address.IsDefault = *req.IsDefault
	}

	if err = commit(ctx, tx); err != nil {
		s.logger.Error().Err(err).Int64("address_id", id).Msg("failed to commit address update")
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("address_id", id).
		Bool("is_default", address.IsDefault).
		Msg("address updated")

	return address, nil
}

// Delete removes one of the user's addresses.
func (s *addressService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	deleted, err := s.addressRepo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrAddressNotFound
	}

	s.logger.Info().Int64("user_id", userID).Int64("address_id", id).Msg("address deleted")
	return nil
}

func checkOwner(address *model.Address, userID int64) error {
	if address == nil {
		return model.ErrAddressNotFound
	}
	if address.UserID != userID {
		return model.ErrForbidden
	}
	return nil
}
