package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/quillnote/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

// GetByID retrieves a user profile by Firebase Auth UID.
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var profile models.UserProfile
	if err := docSnap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	profile.ID = docSnap.Ref.ID
	return &profile, nil
}

// GetByEmail resolves an email address to a user profile. Emails are stored
// lowercased by Upsert, so the lookup normalizes the same way.
func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty for GetByEmail operation")
	}

	iter := r.client.Collection(usersCollection).
		Where("email", "==", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("no user with email '%s': %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email '%s': %w", email, err)
	}

	var profile models.UserProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user data for email '%s': %w", email, err)
	}
	profile.ID = doc.Ref.ID
	return &profile, nil
}

// Upsert writes the profile document at the user's UID, merging over any
// existing fields. Called after login so email lookup stays current.
func (r *firestoreUserRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	if profile == nil || profile.ID == "" {
		return errors.New("profile with a non-empty ID is required for Upsert operation")
	}
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))

	if _, err := r.client.Collection(usersCollection).Doc(profile.ID).Set(ctx, profile, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to upsert user profile '%s': %w", profile.ID, err)
	}
	return nil
}
