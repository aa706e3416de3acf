package api

import (
	"time"

	"github.com/example/quillnote/internal/core"
	"github.com/example/quillnote/internal/models"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NoteViewResponse is the capability-aware shape of GET /notes/:noteId. For a
// locked private note Content is empty and Locked true; the client must call
// the unlock endpoint to read it.
type NoteViewResponse struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Tags       []string          `json:"tags"`
	IsPrivate  bool              `json:"isPrivate"`
	OwnerID    string            `json:"ownerId"`
	Capability models.Permission `json:"capability"`
	Locked     bool              `json:"locked"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func newNoteViewResponse(view *core.NoteView) NoteViewResponse {
	note := view.Note
	return NoteViewResponse{
		ID:         note.ID,
		Title:      note.Title,
		Content:    view.Content,
		Tags:       note.Tags,
		IsPrivate:  note.IsPrivate,
		OwnerID:    note.OwnerID,
		Capability: view.Capability,
		Locked:     view.Locked,
		CreatedAt:  note.CreatedAt,
		UpdatedAt:  note.UpdatedAt,
	}
}

// UnlockResponse carries the decrypted content after a successful unlock.
type UnlockResponse struct {
	Content string `json:"content"`
}

// VersionResponse is one rendered version log entry.
type VersionResponse struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Content string             `json:"content"`
	SavedAt time.Time          `json:"savedAt"`
	SavedBy models.UserProfile `json:"savedBy"`
}

// CollaboratorResponse is one resolved permissions-map entry.
type CollaboratorResponse struct {
	User       models.UserProfile `json:"user"`
	Permission models.Permission  `json:"permission"`
}

// NotificationListResponse pairs the notification page with its unread count
// for the bell badge.
type NotificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}
