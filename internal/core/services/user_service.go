package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
	"github.com/airnode/airtrack-backend/internal/core/ports"
)

// UserService implements user profile and admin management logic
type UserService struct {
	userRepo ports.UserRepository
}

var _ ports.UserService = (*UserService)(nil)

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository) ports.UserService {
	return &UserService{userRepo: userRepo}
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateName changes a user's display name
func (s *UserService) UpdateName(ctx context.Context, id uuid.UUID, fullName string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperrors.ErrFullNameRequired
	}
	if len(fullName) > domain.MaxFullNameLength {
		return nil, apperrors.ErrFullNameTooLong
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.FullName = fullName
	return s.userRepo.Update(ctx, user)
}

// ListUsers retrieves all users
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

// UpdateUser applies an admin-level partial update to a user
func (s *UserService) UpdateUser(ctx context.Context, params ports.UpdateUserParams) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	if params.FullName != nil {
		name := strings.TrimSpace(*params.FullName)
		if name == "" {
			return nil, apperrors.ErrFullNameRequired
		}
		user.FullName = name
	}
	if params.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*params.Email))
		if email == "" {
			return nil, apperrors.ErrEmailRequired
		}
		user.Email = email
	}
	if params.Role != nil {
		if !domain.ValidRole(*params.Role) {
			return nil, apperrors.ErrInvalidRole
		}
		user.Role = *params.Role
	}

	return s.userRepo.Update(ctx, user)
}

// DeleteUser removes a user account
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.userRepo.Delete(ctx, id)
}
