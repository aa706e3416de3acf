package models

// CreateNoteRequest represents the request body for creating a new note.
type CreateNoteRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// UpdateNoteRequest represents a debounced editor flush. Pointers distinguish
// "not part of this flush" from an intentionally empty value. Passphrase must
// accompany content changes on a private note; it is used for the single
// encrypt call and never stored.
type UpdateNoteRequest struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Passphrase string    `json:"passphrase,omitempty"`
}

// TagUpdateRequest adds and/or removes tags on a note.
type TagUpdateRequest struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// ShareNoteRequest represents the request body for sharing a note with one
// collaborator, resolved by email.
type ShareNoteRequest struct {
	Email      string     `json:"email" binding:"required,email"`
	Permission Permission `json:"permission" binding:"required"`
}

// UpdateShareRequest changes an existing collaborator's permission level.
type UpdateShareRequest struct {
	Permission Permission `json:"permission" binding:"required"`
}

// PassphraseRequest carries a passphrase for unlock, restore, set-password and
// remove-password calls. Current is only used when re-keying an
// already-private note: it unlocks the old ciphertext before the new
// passphrase takes over.
type PassphraseRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
	Current    string `json:"current,omitempty"`
}
