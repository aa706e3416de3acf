package core

import (
	"context"

	"github.com/example/quillnote/internal/db"
	"github.com/example/quillnote/internal/models"
)

// NoteView is the capability-aware result of opening a note. When Capability
// is PermissionNone the note exists but is invisible: Note stays nil and no
// content is exposed. For a private note Locked is true and Content empty
// until Unlock succeeds for the caller's session.
type NoteView struct {
	Note       *models.Note
	Capability models.Permission
	Locked     bool
	Content    string // plaintext when readable, "" otherwise
}

// VersionEntry is one version log item with its author resolved for display.
type VersionEntry struct {
	Version *models.NoteVersion
	Author  models.UserProfile
}

// Collaborator is one resolved entry of a note's permissions map.
type Collaborator struct {
	Profile    models.UserProfile
	Permission models.Permission
}

// NoteService mediates all reads and writes of a note: permission
// enforcement, the locked/unlocked state of encrypted content, and version
// snapshotting on content change. It is the sole writer of a note's title,
// content and tags.
type NoteService interface {
	Create(ctx context.Context, userID string, req models.CreateNoteRequest) (*models.Note, error)
	Open(ctx context.Context, userID, noteID string) (*NoteView, error)
	ListOwned(ctx context.Context, userID string, limit int) ([]*models.Note, error)
	ListSharedWith(ctx context.Context, userID string, limit int) ([]*models.Note, error)
	Unlock(ctx context.Context, userID, noteID, passphrase string, session *Session) (string, error)
	Update(ctx context.Context, userID string, session *Session, noteID string, cmds ...UpdateCommand) (*models.Note, error)
	UpdateTags(ctx context.Context, userID, noteID string, add, remove []string) error
	SetPassword(ctx context.Context, userID string, session *Session, noteID, passphrase string) error
	RemovePassword(ctx context.Context, userID string, session *Session, noteID string) error
	RestoreVersion(ctx context.Context, userID string, session *Session, noteID, versionID string) error
	Delete(ctx context.Context, userID, noteID string) error
	Watch(ctx context.Context, userID, noteID string) (<-chan db.NoteEvent, db.CancelFunc, error)
}

// UserService manages application user profiles backed by Firebase Auth
// identities.
type UserService interface {
	// GetOrCreate returns the profile for userID, creating it from the token
	// claims on first login. The bool reports whether a profile was created.
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.UserProfile, bool, error)
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
}

// VersionService is the append-only per-note version log.
type VersionService interface {
	Append(ctx context.Context, noteID string, version *models.NoteVersion) error
	Get(ctx context.Context, noteID, versionID string) (*models.NoteVersion, error)
	List(ctx context.Context, noteID string, limit int, startAfter string) ([]VersionEntry, error)
	// CascadeDelete removes all snapshots of a deleted note. Best-effort:
	// deletion is batched, not atomic, so a mid-sequence failure can leave
	// orphaned snapshots behind a deleted note ID.
	CascadeDelete(ctx context.Context, noteID string) error
}

// SharingService grants, modifies and revokes per-user permissions on a note.
// It is the sole writer of the permissions map.
type SharingService interface {
	ShareWith(ctx context.Context, actorID, noteID, recipientEmail string, level models.Permission) (*models.UserProfile, error)
	ChangePermission(ctx context.Context, actorID, noteID, targetUserID string, level models.Permission) error
	RemoveCollaborator(ctx context.Context, actorID, noteID, targetUserID string) error
	ListCollaborators(ctx context.Context, actorID, noteID, excludeUserID string) ([]Collaborator, error)
}

// NotificationService fans out lightweight change records to collaborators
// and manages the recipient's read state.
type NotificationService interface {
	NotifyShare(ctx context.Context, note *models.Note, actorID, recipientID string) error
	NotifyUpdate(ctx context.Context, note *models.Note, actorID, noteTitle string) error
	List(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
}

// Pusher delivers a realtime nudge to a user's open connections. Push is
// best-effort; delivery failures never fail the primary mutation.
type Pusher interface {
	Push(userID string, payload interface{})
}

// InviteMailer sends a share-invite email to a new collaborator.
// Implementations are best-effort side channels.
type InviteMailer interface {
	SendShareInvite(recipientEmail, senderName, noteTitle string) error
}
