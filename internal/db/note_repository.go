package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/quillnote/internal/models"
)

const notesCollection = "notes"

// firestoreNoteRepository implements the NoteRepository interface using Firestore.
type firestoreNoteRepository struct {
	client *firestore.Client
}

// NewFirestoreNoteRepository creates a new instance of firestoreNoteRepository.
func NewFirestoreNoteRepository(client *firestore.Client) NoteRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for NoteRepository.")
	}
	return &firestoreNoteRepository{client: client}
}

// Create adds a new note document with an auto-generated ID. CreatedAt and
// UpdatedAt are handled by the serverTimestamp tags in the model.
func (r *firestoreNoteRepository) Create(ctx context.Context, note *models.Note) (string, error) {
	docRef := r.client.Collection(notesCollection).NewDoc()
	note.ID = docRef.ID

	if _, err := docRef.Create(ctx, note); err != nil {
		return "", fmt.Errorf("failed to create note: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a note document by its ID.
func (r *firestoreNoteRepository) GetByID(ctx context.Context, noteID string) (*models.Note, error) {
	if noteID == "" {
		return nil, errors.New("noteID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(notesCollection).Doc(noteID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("note with ID '%s' not found: %w", noteID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get note with ID '%s': %w", noteID, err)
	}

	var note models.Note
	if err := docSnap.DataTo(&note); err != nil {
		return nil, fmt.Errorf("failed to decode note data for ID '%s': %w", noteID, err)
	}
	note.ID = docSnap.Ref.ID
	return &note, nil
}

// ListByOwner retrieves notes owned by a user, most recently updated first.
func (r *firestoreNoteRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Note, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID cannot be empty for ListByOwner operation")
	}

	query := r.client.Collection(notesCollection).
		Where("ownerId", "==", ownerID).
		OrderBy("updatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	return r.collectNotes(ctx, query.Documents(ctx))
}

// ListSharedWith retrieves notes a user can see without owning them, by
// querying the permissions map entry at that user's key.
func (r *firestoreNoteRepository) ListSharedWith(ctx context.Context, userID string, limit int) ([]*models.Note, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for ListSharedWith operation")
	}

	query := r.client.Collection(notesCollection).
		Where(fmt.Sprintf("permissions.%s", userID), "in", []interface{}{
			string(models.PermissionEditor), string(models.PermissionViewer),
		}).
		OrderBy("updatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	return r.collectNotes(ctx, query.Documents(ctx))
}

func (r *firestoreNoteRepository) collectNotes(ctx context.Context, iter *firestore.DocumentIterator) ([]*models.Note, error) {
	defer iter.Stop()

	var notes []*models.Note
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate notes: %w", err)
		}

		var note models.Note
		if err := doc.DataTo(&note); err != nil {
			log.Printf("Error decoding note data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		note.ID = doc.Ref.ID
		notes = append(notes, &note)
	}
	return notes, nil
}

// UpdateFields applies a partial update of scalar note fields and refreshes
// updatedAt with a server-assigned timestamp.
func (r *firestoreNoteRepository) UpdateFields(ctx context.Context, noteID string, patch NoteFieldPatch) error {
	if noteID == "" {
		return errors.New("noteID cannot be empty for UpdateFields operation")
	}

	updates := []firestore.Update{
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if patch.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *patch.Title})
	}
	if patch.Content != nil {
		updates = append(updates, firestore.Update{Path: "content", Value: *patch.Content})
	}
	if patch.Tags != nil {
		updates = append(updates, firestore.Update{Path: "tags", Value: *patch.Tags})
	}

	if _, err := r.client.Collection(notesCollection).Doc(noteID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("note with ID '%s' not found for update: %w", noteID, ErrNotFound)
		}
		return fmt.Errorf("failed to update note with ID '%s': %w", noteID, err)
	}
	return nil
}

// UpdateTags applies set-union and set-difference on the tags array in a
// single update, refreshing updatedAt. Firestore cannot union and remove in
// the same write, so when both are requested the removal is issued second.
func (r *firestoreNoteRepository) UpdateTags(ctx context.Context, noteID string, add, remove []string) error {
	if noteID == "" {
		return errors.New("noteID cannot be empty for UpdateTags operation")
	}
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}

	docRef := r.client.Collection(notesCollection).Doc(noteID)

	if len(add) > 0 {
		updates := []firestore.Update{
			{Path: "tags", Value: firestore.ArrayUnion(toInterfaces(add)...)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}
		if _, err := docRef.Update(ctx, updates); err != nil {
			return fmt.Errorf("failed to add tags on note '%s': %w", noteID, err)
		}
	}
	if len(remove) > 0 {
		updates := []firestore.Update{
			{Path: "tags", Value: firestore.ArrayRemove(toInterfaces(remove)...)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}
		if _, err := docRef.Update(ctx, updates); err != nil {
			return fmt.Errorf("failed to remove tags on note '%s': %w", noteID, err)
		}
	}
	return nil
}

// SetPrivacy writes content and the isPrivate flag together so a note is never
// observed with ciphertext marked public or plaintext marked private.
func (r *firestoreNoteRepository) SetPrivacy(ctx context.Context, noteID, content string, isPrivate bool) error {
	if noteID == "" {
		return errors.New("noteID cannot be empty for SetPrivacy operation")
	}
	updates := []firestore.Update{
		{Path: "content", Value: content},
		{Path: "isPrivate", Value: isPrivate},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if _, err := r.client.Collection(notesCollection).Doc(noteID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to set privacy on note '%s': %w", noteID, err)
	}
	return nil
}

// SetPermission upserts a single collaborator entry in the permissions map.
func (r *firestoreNoteRepository) SetPermission(ctx context.Context, noteID, userID string, p models.Permission) error {
	if noteID == "" || userID == "" {
		return errors.New("noteID and userID cannot be empty for SetPermission operation")
	}
	updates := []firestore.Update{
		{Path: "permissions." + userID, Value: string(p)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if _, err := r.client.Collection(notesCollection).Doc(noteID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to set permission for user '%s' on note '%s': %w", userID, noteID, err)
	}
	return nil
}

// RemovePermission deletes a single collaborator key from the permissions map.
func (r *firestoreNoteRepository) RemovePermission(ctx context.Context, noteID, userID string) error {
	if noteID == "" || userID == "" {
		return errors.New("noteID and userID cannot be empty for RemovePermission operation")
	}
	updates := []firestore.Update{
		{Path: "permissions." + userID, Value: firestore.Delete},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if _, err := r.client.Collection(notesCollection).Doc(noteID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to remove permission for user '%s' on note '%s': %w", userID, noteID, err)
	}
	return nil
}

// Delete removes the note document. Sub-collections (the version log) are not
// removed automatically; the service layer cascades first.
func (r *firestoreNoteRepository) Delete(ctx context.Context, noteID string) error {
	if noteID == "" {
		return errors.New("noteID cannot be empty for Delete operation")
	}
	if _, err := r.client.Collection(notesCollection).Doc(noteID).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("note with ID '%s' not found for deletion: %w", noteID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete note with ID '%s': %w", noteID, err)
	}
	return nil
}

// Watch streams remote changes to a note via Firestore snapshot listeners.
// The caller receives an explicit event per change and a cancel handle; no
// ambient subscription state is kept anywhere else.
func (r *firestoreNoteRepository) Watch(ctx context.Context, noteID string) (<-chan NoteEvent, CancelFunc, error) {
	if noteID == "" {
		return nil, nil, errors.New("noteID cannot be empty for Watch operation")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	snapIter := r.client.Collection(notesCollection).Doc(noteID).Snapshots(watchCtx)
	events := make(chan NoteEvent, 1)

	go func() {
		defer close(events)
		defer snapIter.Stop()
		for {
			snap, err := snapIter.Next()
			if err != nil {
				// Context cancellation or stream failure; either way the
				// watch is over.
				return
			}
			if !snap.Exists() {
				select {
				case events <- NoteEvent{Kind: NoteDeleted}:
				case <-watchCtx.Done():
				}
				return
			}

			var note models.Note
			if err := snap.DataTo(&note); err != nil {
				log.Printf("Watch: error decoding note snapshot (ID: %s): %v. Skipping event.", noteID, err)
				continue
			}
			note.ID = snap.Ref.ID
			select {
			case events <- NoteEvent{Kind: NoteUpdated, Note: &note}:
			case <-watchCtx.Done():
				return
			}
		}
	}()

	return events, CancelFunc(cancel), nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
