package core

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/example/quillnote/internal/cache"
	"github.com/example/quillnote/internal/db"
	"github.com/example/quillnote/internal/models"
)

const (
	profileCachePrefix = "profile:"
	profileCacheTTL    = 10 * time.Minute
)

// profileResolver memoizes user profile lookups behind an optional cache.
// A missing or unreadable profile degrades to a placeholder so a single bad
// entry never aborts a whole collaborator or version listing.
type profileResolver struct {
	users  db.UserRepository
	cache  cache.Cache // may be nil
	logger *zap.Logger
}

func newProfileResolver(users db.UserRepository, c cache.Cache, logger *zap.Logger) *profileResolver {
	return &profileResolver{users: users, cache: c, logger: logger}
}

func placeholderProfile(userID string) models.UserProfile {
	return models.UserProfile{ID: userID, DisplayName: "Unknown User"}
}

// Resolve returns the profile for userID, consulting the cache first and
// falling back to a placeholder on any failure.
func (r *profileResolver) Resolve(ctx context.Context, userID string) models.UserProfile {
	if userID == "" {
		return placeholderProfile(userID)
	}

	key := profileCachePrefix + userID
	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, key); err == nil {
			var profile models.UserProfile
			if err := json.Unmarshal([]byte(raw), &profile); err == nil {
				return profile
			}
			// Unreadable cache entry; drop it and fall through to the store.
			_ = r.cache.Delete(ctx, key)
		}
	}

	profile, err := r.users.GetByID(ctx, userID)
	if err != nil {
		r.logger.Warn("profile lookup failed, using placeholder",
			zap.String("userID", userID), zap.Error(err))
		return placeholderProfile(userID)
	}

	if r.cache != nil {
		if raw, err := json.Marshal(profile); err == nil {
			if err := r.cache.Set(ctx, key, string(raw), profileCacheTTL); err != nil {
				r.logger.Warn("profile cache write failed", zap.String("userID", userID), zap.Error(err))
			}
		}
	}
	return *profile
}
