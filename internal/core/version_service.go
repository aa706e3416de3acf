package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/quillnote/internal/cache"
	"github.com/example/quillnote/internal/db"
	"github.com/example/quillnote/internal/models"
)

// versionService implements the VersionService interface.
type versionService struct {
	versionRepo db.VersionRepository
	profiles    *profileResolver
	logger      *zap.Logger
}

// NewVersionService creates a new VersionService instance. The cache may be
// nil, in which case author lookups go straight to the store.
func NewVersionService(vr db.VersionRepository, ur db.UserRepository, c cache.Cache, logger *zap.Logger) VersionService {
	return &versionService{
		versionRepo: vr,
		profiles:    newProfileResolver(ur, c, logger),
		logger:      logger,
	}
}

// Append records one immutable snapshot. Snapshots always hold plaintext; the
// caller decrypts before appending when the parent note is private.
func (s *versionService) Append(ctx context.Context, noteID string, version *models.NoteVersion) error {
	if s.versionRepo == nil {
		return errors.New("versionService: versionRepo not initialized")
	}
	if version == nil {
		return errors.New("versionService: version cannot be nil")
	}

	if _, err := s.versionRepo.Append(ctx, noteID, version); err != nil {
		return fmt.Errorf("failed to append version for note '%s': %w", noteID, err)
	}
	return nil
}

// Get retrieves a single snapshot.
func (s *versionService) Get(ctx context.Context, noteID, versionID string) (*models.NoteVersion, error) {
	version, err := s.versionRepo.GetByID(ctx, noteID, versionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: version '%s' of note '%s'", ErrVersionNotFound, versionID, noteID)
		}
		return nil, fmt.Errorf("failed to get version '%s' of note '%s': %w", versionID, noteID, err)
	}
	return version, nil
}

// List returns snapshots newest-first with their authors resolved for
// display. A failed author lookup degrades to a placeholder profile rather
// than aborting the listing.
func (s *versionService) List(ctx context.Context, noteID string, limit int, startAfter string) ([]VersionEntry, error) {
	versions, err := s.versionRepo.ListByNote(ctx, noteID, limit, startAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions for note '%s': %w", noteID, err)
	}

	entries := make([]VersionEntry, 0, len(versions))
	for _, v := range versions {
		entries = append(entries, VersionEntry{
			Version: v,
			Author:  s.profiles.Resolve(ctx, v.SavedBy),
		})
	}
	return entries, nil
}

// CascadeDelete removes every snapshot of a deleted note. Not atomic with the
// note's own deletion or across delete batches; a failure partway can orphan
// snapshots under the dead note ID, which callers treat as acceptable debris.
func (s *versionService) CascadeDelete(ctx context.Context, noteID string) error {
	if err := s.versionRepo.DeleteAll(ctx, noteID); err != nil {
		return fmt.Errorf("failed to cascade-delete versions for note '%s': %w", noteID, err)
	}
	return nil
}
