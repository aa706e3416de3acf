package db

import (
	"context"

	"github.com/example/quillnote/internal/models"
)

// NoteFieldPatch is a partial update of a note's mutable fields. A nil field
// is left untouched; the store refreshes updatedAt on every applied patch.
type NoteFieldPatch struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// NoteEventKind classifies change events delivered by a note watch.
type NoteEventKind string

const (
	NoteUpdated NoteEventKind = "updated"
	NoteDeleted NoteEventKind = "deleted"
)

// NoteEvent is one remote change observed on a watched note. Note is nil for
// NoteDeleted events.
type NoteEvent struct {
	Kind NoteEventKind
	Note *models.Note
}

// CancelFunc stops a watch and releases its resources. Safe to call more than
// once.
type CancelFunc func()

// NoteRepository defines note document storage operations.
type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) (string, error) // Returns new note ID
	GetByID(ctx context.Context, noteID string) (*models.Note, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Note, error)
	ListSharedWith(ctx context.Context, userID string, limit int) ([]*models.Note, error)
	UpdateFields(ctx context.Context, noteID string, patch NoteFieldPatch) error
	UpdateTags(ctx context.Context, noteID string, add, remove []string) error
	SetPrivacy(ctx context.Context, noteID, content string, isPrivate bool) error
	SetPermission(ctx context.Context, noteID, userID string, p models.Permission) error
	RemovePermission(ctx context.Context, noteID, userID string) error
	Delete(ctx context.Context, noteID string) error
	// Watch streams remote changes to a single note until ctx is done or the
	// returned cancel func is called.
	Watch(ctx context.Context, noteID string) (<-chan NoteEvent, CancelFunc, error)
}

// VersionRepository defines the append-only version log, a sub-collection
// scoped to its parent note.
type VersionRepository interface {
	Append(ctx context.Context, noteID string, version *models.NoteVersion) (string, error)
	GetByID(ctx context.Context, noteID, versionID string) (*models.NoteVersion, error)
	// ListByNote returns snapshots ordered descending by savedAt. A non-empty
	// startAfter resumes after that version document for paged rendering.
	ListByNote(ctx context.Context, noteID string, limit int, startAfter string) ([]*models.NoteVersion, error)
	// DeleteAll removes every snapshot of a note. Deletion is batched but not
	// atomic across batches; see the service-level cascade documentation.
	DeleteAll(ctx context.Context, noteID string) error
}

// NotificationRepository defines fan-out record storage.
type NotificationRepository interface {
	// CreateAll writes the given notifications as a single batched write.
	CreateAll(ctx context.Context, notifications []*models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
	// MarkRead flips isRead on the given notification IDs in one batched
	// write, so the recipient never observes a partially flipped list.
	MarkRead(ctx context.Context, ids []string) error
}

// UserRepository defines read access to the users collection plus the
// post-login upsert that keeps email lookup working.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
}
