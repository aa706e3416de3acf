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

const versionsCollection = "versions"

// Firestore write batches cap at 500 operations.
const deleteBatchSize = 500

// firestoreVersionRepository implements the VersionRepository interface using
// a sub-collection under each note document.
type firestoreVersionRepository struct {
	client *firestore.Client
}

// NewFirestoreVersionRepository creates a new instance of firestoreVersionRepository.
func NewFirestoreVersionRepository(client *firestore.Client) VersionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for VersionRepository.")
	}
	return &firestoreVersionRepository{client: client}
}

func (r *firestoreVersionRepository) versions(noteID string) *firestore.CollectionRef {
	return r.client.Collection(notesCollection).Doc(noteID).Collection(versionsCollection)
}

// Append writes one immutable snapshot. SavedAt is the caller-provided
// timestamp of the superseded content, so no serverTimestamp is used here.
func (r *firestoreVersionRepository) Append(ctx context.Context, noteID string, version *models.NoteVersion) (string, error) {
	if noteID == "" {
		return "", errors.New("noteID cannot be empty for Append operation")
	}
	docRef := r.versions(noteID).NewDoc()
	version.ID = docRef.ID

	if _, err := docRef.Create(ctx, version); err != nil {
		return "", fmt.Errorf("failed to append version for note '%s': %w", noteID, err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a single snapshot.
func (r *firestoreVersionRepository) GetByID(ctx context.Context, noteID, versionID string) (*models.NoteVersion, error) {
	if noteID == "" || versionID == "" {
		return nil, errors.New("noteID and versionID cannot be empty for GetByID operation")
	}
	docSnap, err := r.versions(noteID).Doc(versionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("version '%s' of note '%s' not found: %w", versionID, noteID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get version '%s' of note '%s': %w", versionID, noteID, err)
	}

	var version models.NoteVersion
	if err := docSnap.DataTo(&version); err != nil {
		return nil, fmt.Errorf("failed to decode version data for ID '%s': %w", versionID, err)
	}
	version.ID = docSnap.Ref.ID
	return &version, nil
}

// ListByNote returns snapshots newest-first by savedAt. Each call is a static
// page; a non-empty startAfter resumes after that document for lazy rendering.
func (r *firestoreVersionRepository) ListByNote(ctx context.Context, noteID string, limit int, startAfter string) ([]*models.NoteVersion, error) {
	if noteID == "" {
		return nil, errors.New("noteID cannot be empty for ListByNote operation")
	}

	query := r.versions(noteID).OrderBy("savedAt", firestore.Desc)
	if startAfter != "" {
		startSnap, err := r.versions(noteID).Doc(startAfter).Get(ctx)
		if err == nil {
			query = query.StartAfter(startSnap)
		} else {
			log.Printf("Warning: could not fetch startAfter version '%s': %v. Pagination may be affected.", startAfter, err)
		}
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var versions []*models.NoteVersion
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate versions for note '%s': %w", noteID, err)
		}

		var version models.NoteVersion
		if err := doc.DataTo(&version); err != nil {
			log.Printf("Error decoding version data (ID: %s) for note '%s': %v. Skipping.", doc.Ref.ID, noteID, err)
			continue
		}
		version.ID = doc.Ref.ID
		versions = append(versions, &version)
	}
	return versions, nil
}

// DeleteAll removes every snapshot of a note in write batches. Batches commit
// sequentially; a failure partway through leaves later snapshots in place, so
// the cascade is best-effort, not atomic.
func (r *firestoreVersionRepository) DeleteAll(ctx context.Context, noteID string) error {
	if noteID == "" {
		return errors.New("noteID cannot be empty for DeleteAll operation")
	}

	for {
		iter := r.versions(noteID).Limit(deleteBatchSize).Documents(ctx)
		batch := r.client.Batch()
		count := 0
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return fmt.Errorf("failed to iterate versions for deletion (note '%s'): %w", noteID, err)
			}
			batch.Delete(doc.Ref)
			count++
		}
		iter.Stop()

		if count == 0 {
			return nil
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("failed to delete version batch for note '%s': %w", noteID, err)
		}
	}
}
