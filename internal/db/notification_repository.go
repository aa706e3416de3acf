package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/example/quillnote/internal/models"
)

const notificationsCollection = "notifications"

// firestoreNotificationRepository implements the NotificationRepository
// interface using Firestore.
type firestoreNotificationRepository struct {
	client *firestore.Client
}

// NewFirestoreNotificationRepository creates a new instance of firestoreNotificationRepository.
func NewFirestoreNotificationRepository(client *firestore.Client) NotificationRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for NotificationRepository.")
	}
	return &firestoreNotificationRepository{client: client}
}

// CreateAll writes a fan-out of notifications in a single batch, so either
// every recipient gets their record or none do. Firestore batches cap at 500
// writes, far above any realistic collaborator count on one note.
func (r *firestoreNotificationRepository) CreateAll(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := r.client.Batch()
	for _, n := range notifications {
		docRef := r.client.Collection(notificationsCollection).NewDoc()
		n.ID = docRef.ID
		batch.Create(docRef, n)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to create notification batch: %w", err)
	}
	return nil
}

// ListByRecipient returns a user's notifications newest-first.
func (r *firestoreNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	if recipientID == "" {
		return nil, errors.New("recipientID cannot be empty for ListByRecipient operation")
	}

	query := r.client.Collection(notificationsCollection).
		Where("recipientId", "==", recipientID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var notifications []*models.Notification
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate notifications for recipient '%s': %w", recipientID, err)
		}

		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			log.Printf("Error decoding notification data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		n.ID = doc.Ref.ID
		notifications = append(notifications, &n)
	}
	return notifications, nil
}

// MarkRead flips isRead in one batched write, avoiding the partial-read-state
// flicker of per-record updates.
func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	batch := r.client.Batch()
	for _, id := range ids {
		docRef := r.client.Collection(notificationsCollection).Doc(id)
		batch.Update(docRef, []firestore.Update{{Path: "isRead", Value: true}})
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
