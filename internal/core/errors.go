package core

import "errors"

// Sentinel errors shared across the note, sharing and notification services.
// Handlers map these onto HTTP statuses; nothing below this package's
// boundary leaks store internals through them.
var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrVersionNotFound   = errors.New("version not found")
	ErrAccessDenied      = errors.New("user does not have permission for this action on the note")
	ErrUnlockRequired    = errors.New("note must be unlocked before this action")
	ErrUserNotFound      = errors.New("user not found")
	ErrSelfShare         = errors.New("cannot share a note with oneself")
	ErrOwnerImmutable    = errors.New("the owner's permission cannot be changed or removed")
	ErrNotACollaborator  = errors.New("user is not a collaborator on the note")
	ErrInvalidPermission = errors.New("invalid permission level")
)
