package models

import "time"

// NotificationType distinguishes the two fan-out events: a note being shared
// with the recipient, and a collaborator changing a note the recipient can see.
type NotificationType string

const (
	NotificationShare  NotificationType = "share"
	NotificationUpdate NotificationType = "update"
)

// Notification is a lightweight per-recipient fan-out record. The sender
// profile and note title are denormalized at send time so the list renders
// without extra lookups.
type Notification struct {
	ID            string           `json:"id" firestore:"-"` // Document ID
	RecipientID   string           `json:"recipientId" firestore:"recipientId"`
	SenderID      string           `json:"senderId" firestore:"senderId"`
	SenderProfile UserProfile      `json:"senderProfile" firestore:"senderProfile"`
	NoteID        string           `json:"noteId" firestore:"noteId"`
	NoteTitle     string           `json:"noteTitle" firestore:"noteTitle"`
	Type          NotificationType `json:"type" firestore:"type"`
	IsRead        bool             `json:"isRead" firestore:"isRead"`
	CreatedAt     time.Time        `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}
