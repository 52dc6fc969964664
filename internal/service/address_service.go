package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// addressService implements AddressService.
//
// A user with addresses always has exactly one default. Every write starts by
// locking the owning user, so reads of the default flag inside the transaction
// are current and the clear-then-set pair never interleaves with another change.
type addressService struct {
	addressRepo repository.AddressRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAddressService creates a new address book service.
func NewAddressService(addressRepo repository.AddressRepository, logger zerolog.Logger) AddressService {
	return &addressService{
		addressRepo: addressRepo,
		logger:      logger.With().Str("service", "address").Logger(),
		now:         time.Now,
	}
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	addresses, err := s.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list addresses")
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *addressService) Create(ctx context.Context, userID uuid.UUID, req *model.AddressRequest) (*model.Address, error) {
	now := s.now().UTC()
	address := &model.Address{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
	}
	applyAddressRequest(address, req, now)

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.addressRepo.LockOwner(ctx, tx, userID); err != nil {
			return err
		}

		count, err := s.addressRepo.CountByUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		address.IsDefault = req.IsDefault || count == 0
		if address.IsDefault && count > 0 {
			if err := s.addressRepo.ClearDefault(ctx, tx, userID); err != nil {
				return err
			}
		}

		return s.addressRepo.Create(ctx, tx, address)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("address_id", address.ID.String()).
		Bool("default", address.IsDefault).
		Msg("address created")

	return address, nil
}

func (s *addressService) Update(ctx context.Context, userID, id uuid.UUID, req *model.AddressRequest) (*model.Address, error) {
	var address *model.Address

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.addressRepo.LockOwner(ctx, tx, userID); err != nil {
			return err
		}

		current, err := s.addressRepo.GetForUpdate(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if current == nil {
			return model.ErrAddressNotFound
		}

		applyAddressRequest(current, req, s.now().UTC())
		if err := s.addressRepo.Update(ctx, tx, current); err != nil {
			return err
		}

		if req.IsDefault && !current.IsDefault {
			if err := s.addressRepo.ClearDefault(ctx, tx, userID); err != nil {
				return err
			}
			ok, err := s.addressRepo.SetDefault(ctx, tx, userID, id)
			if err != nil {
				return err
			}
			if !ok {
				return model.ErrAddressNotFound
			}
			current.IsDefault = true
		}

		address = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}

func (s *addressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.addressRepo.LockOwner(ctx, tx, userID); err != nil {
			return err
		}

		wasDefault, err := s.addressRepo.Delete(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if wasDefault {
			return s.addressRepo.PromoteNewest(ctx, tx, userID)
		}
		return nil
	})
}

func (s *addressService) SetDefault(ctx context.Context, userID, id uuid.UUID) (*model.Address, error) {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.addressRepo.LockOwner(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.addressRepo.ClearDefault(ctx, tx, userID); err != nil {
			return err
		}
		ok, err := s.addressRepo.SetDefault(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if !ok {
			return model.ErrAddressNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("address_id", id.String()).
		Msg("default address changed")

	return s.get(ctx, userID, id)
}

func (s *addressService) get(ctx context.Context, userID, id uuid.UUID) (*model.Address, error) {
	address, err := s.addressRepo.GetByID(ctx, userID, id)
	if err != nil {
		s.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to get address")
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if address == nil {
		return nil, model.ErrAddressNotFound
	}
	return address, nil
}

func (s *addressService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return runInTx(ctx, s.addressRepo.BeginTx, s.logger, fn)
}

// applyAddressRequest copies the editable fields. The default flag is handled
// by the caller.
func applyAddressRequest(a *model.Address, req *model.AddressRequest, now time.Time) {
	a.Title = strings.TrimSpace(req.Title)
	a.RecipientName = strings.TrimSpace(req.RecipientName)
	a.Phone = strings.TrimSpace(req.Phone)
	a.Address = strings.TrimSpace(req.Address)
	a.City = strings.TrimSpace(req.City)
	a.District = strings.TrimSpace(req.District)
	a.PostalCode = strings.TrimSpace(req.PostalCode)
	a.Country = strings.TrimSpace(req.Country)
	if a.Country == "" {
		a.Country = model.DefaultCountry
	}
	a.Type = req.Type
	if a.Type == "" {
		a.Type = model.AddressHome
	}
	a.UpdatedAt = now
}
