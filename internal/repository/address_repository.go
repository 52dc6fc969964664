package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const addressColumns = `id, user_id, title, recipient_name, phone, address, city, district,
	postal_code, country, is_default, type, created_at, updated_at`

var errDefaultTaken = model.NewDomainError(model.KindConflict, model.ErrCodeConflict,
	"Another address was made default at the same time")

// addressRepository implements the AddressRepository interface using PostgreSQL.
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

func scanAddress(row pgx.Row) (*model.Address, error) {
	var (
		a     model.Address
		aType string
	)
	err := row.Scan(
		&a.ID, &a.UserID, &a.Title, &a.RecipientName, &a.Phone, &a.Address, &a.City, &a.District,
		&a.PostalCode, &a.Country, &a.IsDefault, &aType, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Type = model.AddressType(aType)
	return &a, nil
}

// BeginTx starts a new database transaction.
func (r *addressRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// ListByUser retrieves a user's addresses, default first.
func (r *addressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC",
		userID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// GetByID retrieves one of a user's addresses.
func (r *addressRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Address, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE id = $1 AND user_id = $2",
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return a, nil
}

// LockOwner takes a row lock on the owning user so address changes for one
// user run one at a time.
func (r *addressRepository) LockOwner(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx, "SELECT 1 FROM users WHERE id = $1 FOR UPDATE", userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to lock address owner")
		return fmt.Errorf("failed to lock address owner: %w", err)
	}
	return nil
}

// GetForUpdate retrieves and row-locks one of a user's addresses within tx.
func (r *addressRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (*model.Address, error) {
	a, err := scanAddress(tx.QueryRow(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE id = $1 AND user_id = $2 FOR UPDATE",
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to lock address")
		return nil, fmt.Errorf("failed to lock address: %w", err)
	}
	return a, nil
}

// CountByUser counts a user's addresses within tx.
func (r *addressRepository) CountByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var n int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM addresses WHERE user_id = $1", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count addresses: %w", err)
	}
	return n, nil
}

// Create inserts an address within tx.
func (r *addressRepository) Create(ctx context.Context, tx pgx.Tx, a *model.Address) error {
	query := `
		INSERT INTO addresses (id, user_id, title, recipient_name, phone, address, city, district,
			postal_code, country, is_default, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := tx.Exec(ctx, query,
		a.ID, a.UserID, a.Title, a.RecipientName, a.Phone, a.Address, a.City, a.District,
		a.PostalCode, a.Country, a.IsDefault, string(a.Type), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errDefaultTaken
		}
		r.logger.Error().Err(err).Str("address_id", a.ID.String()).Msg("failed to create address")
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

// Update replaces an address's editable fields within tx. The default flag is
// only changed by ClearDefault, SetDefault and PromoteNewest.
func (r *addressRepository) Update(ctx context.Context, tx pgx.Tx, a *model.Address) error {
	query := `
		UPDATE addresses
		SET title = $3, recipient_name = $4, phone = $5, address = $6, city = $7, district = $8,
			postal_code = $9, country = $10, type = $11, updated_at = $12
		WHERE id = $1 AND user_id = $2
	`

	tag, err := tx.Exec(ctx, query,
		a.ID, a.UserID, a.Title, a.RecipientName, a.Phone, a.Address, a.City, a.District,
		a.PostalCode, a.Country, string(a.Type), a.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("address_id", a.ID.String()).Msg("failed to update address")
		return fmt.Errorf("failed to update address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAddressNotFound
	}
	return nil
}

// Delete removes one of a user's addresses within tx.
func (r *addressRepository) Delete(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (bool, error) {
	var wasDefault bool
	err := tx.QueryRow(ctx,
		"DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_default",
		id, userID,
	).Scan(&wasDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, model.ErrAddressNotFound
		}
		r.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to delete address")
		return false, fmt.Errorf("failed to delete address: %w", err)
	}
	return wasDefault, nil
}

// ClearDefault unsets the default flag on all of a user's addresses within tx.
func (r *addressRepository) ClearDefault(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		"UPDATE addresses SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default",
		userID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear default address")
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}

// SetDefault marks one address as default within tx.
func (r *addressRepository) SetDefault(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx,
		"UPDATE addresses SET is_default = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2",
		id, userID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to set default address")
		if isUniqueViolation(err) {
			return false, errDefaultTaken
		}
		return false, fmt.Errorf("failed to set default address: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// PromoteNewest makes the most recently created address the default within tx.
func (r *addressRepository) PromoteNewest(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE addresses SET is_default = TRUE, updated_at = NOW()
		WHERE id = (
			SELECT id FROM addresses WHERE user_id = $1
			ORDER BY created_at DESC, id LIMIT 1
		)`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to promote default address")
		return fmt.Errorf("failed to promote default address: %w", err)
	}
	return nil
}
