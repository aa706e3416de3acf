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

// notificationListLimit bounds a single listing; it also bounds the batch
// size of a mark-all-read sweep well under the store's 500-write batch cap.
const notificationListLimit = 200

// notificationService implements the NotificationService interface.
type notificationService struct {
	notificationRepo db.NotificationRepository
	profiles         *profileResolver
	pusher           Pusher // may be nil
	logger           *zap.Logger
}

// NewNotificationService creates a new NotificationService instance. Both the
// cache and the pusher may be nil.
func NewNotificationService(nr db.NotificationRepository, ur db.UserRepository, c cache.Cache, pusher Pusher, logger *zap.Logger) NotificationService {
	return &notificationService{
		notificationRepo: nr,
		profiles:         newProfileResolver(ur, c, logger),
		pusher:           pusher,
		logger:           logger,
	}
}

// NotifyShare creates the single share-type record for a newly added
// collaborator.
func (s *notificationService) NotifyShare(ctx context.Context, note *models.Note, actorID, recipientID string) error {
	if note == nil {
		return errors.New("notificationService: note cannot be nil")
	}
	if recipientID == actorID {
		return nil
	}
	return s.fanOut(ctx, note, actorID, note.Title, models.NotificationShare, []string{recipientID})
}

// NotifyUpdate fans an update-type record out to every collaborator except
// the actor. noteTitle is passed separately because the caller may have just
// renamed the note.
func (s *notificationService) NotifyUpdate(ctx context.Context, note *models.Note, actorID, noteTitle string) error {
	if note == nil {
		return errors.New("notificationService: note cannot be nil")
	}

	var recipients []string
	for userID := range note.Permissions {
		if userID != actorID {
			recipients = append(recipients, userID)
		}
	}
	if len(recipients) == 0 {
		return nil
	}
	return s.fanOut(ctx, note, actorID, noteTitle, models.NotificationUpdate, recipients)
}

// fanOut builds one record per recipient with the denormalized sender profile
// and writes them as a single batch, then nudges any live connections.
func (s *notificationService) fanOut(ctx context.Context, note *models.Note, actorID, noteTitle string, ntype models.NotificationType, recipients []string) error {
	sender := s.profiles.Resolve(ctx, actorID)

	notifications := make([]*models.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		notifications = append(notifications, &models.Notification{
			RecipientID:   recipientID,
			SenderID:      actorID,
			SenderProfile: sender,
			NoteID:        note.ID,
			NoteTitle:     noteTitle,
			Type:          ntype,
			IsRead:        false,
		})
	}

	if err := s.notificationRepo.CreateAll(ctx, notifications); err != nil {
		return fmt.Errorf("failed to fan out %s notifications for note '%s': %w", ntype, note.ID, err)
	}

	if s.pusher != nil {
		for _, n := range notifications {
			s.pusher.Push(n.RecipientID, n)
		}
	}
	return nil
}

// List returns a user's notifications newest-first.
func (s *notificationService) List(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > notificationListLimit {
		limit = notificationListLimit
	}
	notifications, err := s.notificationRepo.ListByRecipient(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user '%s': %w", userID, err)
	}
	return notifications, nil
}

// MarkAllRead flips every currently-unread notification of userID in one
// batched write, so the reader either sees all of them flip or none.
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	notifications, err := s.notificationRepo.ListByRecipient(ctx, userID, notificationListLimit)
	if err != nil {
		return fmt.Errorf("failed to load notifications for read-flagging (user '%s'): %w", userID, err)
	}

	var unreadIDs []string
	for _, n := range notifications {
		if !n.IsRead {
			unreadIDs = append(unreadIDs, n.ID)
		}
	}
	if len(unreadIDs) == 0 {
		return nil
	}

	if err := s.notificationRepo.MarkRead(ctx, unreadIDs); err != nil {
		return fmt.Errorf("failed to mark notifications read for user '%s': %w", userID, err)
	}
	return nil
}
