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

// sharingService implements the SharingService interface. It owns every write
// to a note's permissions map.
type sharingService struct {
	noteRepo     db.NoteRepository
	userRepo     db.UserRepository
	notification NotificationService
	mailer       InviteMailer // may be nil
	profiles     *profileResolver
	logger       *zap.Logger
}

// NewSharingService creates a new SharingService instance. The mailer and
// cache may be nil.
func NewSharingService(
	nr db.NoteRepository,
	ur db.UserRepository,
	ns NotificationService,
	mailer InviteMailer,
	c cache.Cache,
	logger *zap.Logger,
) SharingService {
	return &sharingService{
		noteRepo:     nr,
		userRepo:     ur,
		notification: ns,
		mailer:       mailer,
		profiles:     newProfileResolver(ur, c, logger),
		logger:       logger,
	}
}

// getOwnedNote loads a note and verifies the actor owns it.
func (s *sharingService) getOwnedNote(ctx context.Context, actorID, noteID string) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrNoteNotFound, noteID)
		}
		return nil, fmt.Errorf("failed to get note '%s': %w", noteID, err)
	}
	if Capability(note, actorID) != models.PermissionOwner {
		return nil, fmt.Errorf("%w: user '%s' is not owner of note '%s'", ErrAccessDenied, actorID, noteID)
	}
	return note, nil
}

// ShareWith resolves recipientEmail to a user and upserts their permission
// entry. Re-sharing with an existing collaborator simply changes their level.
// The share notification and invite mail are best-effort side channels.
func (s *sharingService) ShareWith(ctx context.Context, actorID, noteID, recipientEmail string, level models.Permission) (*models.UserProfile, error) {
	if !validShareLevel(level) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPermission, level)
	}

	note, err := s.getOwnedNote(ctx, actorID, noteID)
	if err != nil {
		return nil, err
	}

	recipient, err := s.userRepo.GetByEmail(ctx, recipientEmail)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: no account for '%s'", ErrUserNotFound, recipientEmail)
		}
		return nil, fmt.Errorf("failed to resolve share recipient '%s': %w", recipientEmail, err)
	}
	if recipient.ID == actorID {
		return nil, ErrSelfShare
	}

	if err := s.noteRepo.SetPermission(ctx, noteID, recipient.ID, level); err != nil {
		return nil, fmt.Errorf("failed to grant '%s' to user '%s' on note '%s': %w", level, recipient.ID, noteID, err)
	}

	if err := s.notification.NotifyShare(ctx, note, actorID, recipient.ID); err != nil {
		s.logger.Warn("share notification failed",
			zap.String("noteID", noteID), zap.String("recipientID", recipient.ID), zap.Error(err))
	}
	if s.mailer != nil {
		sender := s.profiles.Resolve(ctx, actorID)
		if err := s.mailer.SendShareInvite(recipient.Email, sender.DisplayName, note.Title); err != nil {
			s.logger.Warn("share invite mail failed",
				zap.String("recipient", recipient.Email), zap.Error(err))
		}
	}

	return recipient, nil
}

// ChangePermission updates the level of an existing collaborator. The owner's
// level is fixed and not user-settable.
func (s *sharingService) ChangePermission(ctx context.Context, actorID, noteID, targetUserID string, level models.Permission) error {
	if !validShareLevel(level) {
		return fmt.Errorf("%w: '%s'", ErrInvalidPermission, level)
	}

	note, err := s.getOwnedNote(ctx, actorID, noteID)
	if err != nil {
		return err
	}
	if targetUserID == note.OwnerID {
		return ErrOwnerImmutable
	}
	if _, ok := note.Permissions[targetUserID]; !ok {
		return fmt.Errorf("%w: '%s' on note '%s'", ErrNotACollaborator, targetUserID, noteID)
	}

	if err := s.noteRepo.SetPermission(ctx, noteID, targetUserID, level); err != nil {
		return fmt.Errorf("failed to change permission of user '%s' on note '%s': %w", targetUserID, noteID, err)
	}
	return nil
}

// RemoveCollaborator deletes the target's permissions entry entirely; their
// capability becomes none and the note disappears for them.
func (s *sharingService) RemoveCollaborator(ctx context.Context, actorID, noteID, targetUserID string) error {
	note, err := s.getOwnedNote(ctx, actorID, noteID)
	if err != nil {
		return err
	}
	if targetUserID == note.OwnerID {
		return ErrOwnerImmutable
	}
	if _, ok := note.Permissions[targetUserID]; !ok {
		return fmt.Errorf("%w: '%s' on note '%s'", ErrNotACollaborator, targetUserID, noteID)
	}

	if err := s.noteRepo.RemovePermission(ctx, noteID, targetUserID); err != nil {
		return fmt.Errorf("failed to remove collaborator '%s' from note '%s': %w", targetUserID, noteID, err)
	}
	return nil
}

// ListCollaborators resolves every permissions entry to a profile, optionally
// excluding one user (typically the caller). A missing profile degrades to a
// placeholder instead of aborting the listing.
func (s *sharingService) ListCollaborators(ctx context.Context, actorID, noteID, excludeUserID string) ([]Collaborator, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrNoteNotFound, noteID)
		}
		return nil, fmt.Errorf("failed to get note '%s': %w", noteID, err)
	}
	if Capability(note, actorID) == models.PermissionNone {
		return nil, fmt.Errorf("%w: user '%s' cannot list collaborators of note '%s'", ErrAccessDenied, actorID, noteID)
	}

	collaborators := make([]Collaborator, 0, len(note.Permissions))
	for userID, level := range note.Permissions {
		if userID == excludeUserID {
			continue
		}
		collaborators = append(collaborators, Collaborator{
			Profile:    s.profiles.Resolve(ctx, userID),
			Permission: level,
		})
	}
	return collaborators, nil
}
