package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// userService implements UserService.
type userService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "user").Logger(),
		now:      time.Now,
	}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]model.User, model.Pagination, error) {
	limit, offset = page(limit, offset)

	users, total, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, model.Pagination{}, fmt.Errorf("failed to list users: %w", err)
	}

	return users, model.Pagination{Total: total, Limit: limit, Offset: offset}, nil
}

func (s *userService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("user created")

	return user, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor auth.Principal, id uuid.UUID, role model.Role) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, model.ErrForbidden
	}
	if role != model.RoleAdmin && role != model.RoleUser {
		return nil, model.NewValidationError(fmt.Sprintf("unknown role %q", role))
	}
	if actor.UserID == id && role != model.RoleAdmin {
		return nil, model.NewDomainError(model.KindForbidden, model.ErrCodeForbidden,
			"Admins cannot remove their own admin role")
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("actor_id", actor.UserID.String()).
		Str("user_id", id.String()).
		Str("role", string(role)).
		Msg("user role changed")

	return s.GetByID(ctx, id)
}

func (s *userService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	if err := s.userRepo.UpdateActive(ctx, id, active); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", id.String()).
		Bool("active", active).
		Msg("user activation changed")

	return s.GetByID(ctx, id)
}
