package services

import (
	"context"
	"fmt"

	"narratia/internal/models"
	"narratia/internal/repositories"
)

// UserService handles user profile lookups.
type UserService struct {
	repo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// GetByID returns the public view of the user with the given ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.PublicUser, error) {
	if !models.ValidID(id) {
		return nil, fmt.Errorf("%w: user ID %q", models.ErrInvalidInput, id)
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}
