package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/quillnote/internal/db"
	"github.com/example/quillnote/internal/models"
)

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo db.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// GetOrCreate retrieves the profile for userID, creating it from the token
// claims on first login. The stored email is lowercased so the share-by-email
// lookup stays case-insensitive.
func (s *userService) GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.UserProfile, bool, error) {
	if userID == "" {
		return nil, false, errors.New("userService: userID cannot be empty")
	}

	profile, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to load user '%s': %w", userID, err)
	}

	newProfile := &models.UserProfile{
		ID:          userID,
		Email:       strings.ToLower(email),
		DisplayName: displayName,
		PhotoURL:    photoURL,
	}
	if err := s.userRepo.Upsert(ctx, newProfile); err != nil {
		return nil, false, fmt.Errorf("failed to create user '%s': %w", userID, err)
	}
	return newProfile, true, nil
}

// Get returns the profile for userID.
func (s *userService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user '%s': %w", userID, err)
	}
	return profile, nil
}
