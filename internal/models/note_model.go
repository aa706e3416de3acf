package models

import "time"

// Permission is the access level a user holds on a note, as stored in the
// note's permissions map.
type Permission string

const (
	PermissionOwner  Permission = "owner"
	PermissionEditor Permission = "editor"
	PermissionViewer Permission = "viewer"
	// PermissionNone is never persisted; it is the capability of a user with
	// no entry in the permissions map.
	PermissionNone Permission = ""
)

// Note is the central entity. Content holds serialized rich-text, or a
// ciphertext envelope when IsPrivate is true.
type Note struct {
	ID          string                `json:"id" firestore:"-"` // Document ID
	Title       string                `json:"title" firestore:"title"`
	Content     string                `json:"content" firestore:"content"`
	Tags        []string              `json:"tags" firestore:"tags"`
	IsPrivate   bool                  `json:"isPrivate" firestore:"isPrivate"`
	OwnerID     string                `json:"ownerId" firestore:"ownerId"` // Firebase Auth UID of the creator
	Permissions map[string]Permission `json:"permissions" firestore:"permissions"`
	CreatedAt   time.Time             `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time             `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// NoteVersion is an immutable snapshot of a note's title and content, taken
// immediately before the note is overwritten. Content is always stored as
// plaintext, regardless of the parent note's privacy state. SavedAt records
// when the superseded content was last current (the replaced note's
// updatedAt), not when the snapshot was written.
type NoteVersion struct {
	ID      string    `json:"id" firestore:"-"` // Document ID within notes/{noteId}/versions
	Title   string    `json:"title" firestore:"title"`
	Content string    `json:"content" firestore:"content"`
	SavedAt time.Time `json:"savedAt" firestore:"savedAt"`
	SavedBy string    `json:"savedBy" firestore:"savedBy"`
}
