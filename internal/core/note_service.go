package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/quillnote/internal/crypto"
	"github.com/example/quillnote/internal/db"
	"github.com/example/quillnote/internal/models"
)

// noteService implements the NoteService interface. It is the sole writer of
// a note's title, content, tags and of version snapshots; the permissions map
// belongs to the sharing service.
type noteService struct {
	noteRepo     db.NoteRepository
	versions     VersionService
	notification NotificationService
	logger       *zap.Logger
}

// NewNoteService creates a new NoteService instance.
func NewNoteService(
	nr db.NoteRepository,
	vs VersionService,
	ns NotificationService,
	logger *zap.Logger,
) NoteService {
	return &noteService{
		noteRepo:     nr,
		versions:     vs,
		notification: ns,
		logger:       logger,
	}
}

// Create makes a new note owned by userID, seeding the permissions map with
// the immutable owner entry.
func (s *noteService) Create(ctx context.Context, userID string, req models.CreateNoteRequest) (*models.Note, error) {
	if userID == "" {
		return nil, errors.New("noteService: userID cannot be empty")
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	note := &models.Note{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      tags,
		IsPrivate: false,
		OwnerID:   userID,
		Permissions: map[string]models.Permission{
			userID: models.PermissionOwner,
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	noteID, err := s.noteRepo.Create(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	note.ID = noteID
	return note, nil
}

func (s *noteService) getNote(ctx context.Context, noteID string) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrNoteNotFound, noteID)
		}
		return nil, fmt.Errorf("failed to get note '%s': %w", noteID, err)
	}
	return note, nil
}

// visibleContent returns the plaintext a collaborator with an unlocked view
// of the note sees. For a private note the session must hold the passphrase;
// a stale passphrase surfaces as a decryption failure.
func (s *noteService) visibleContent(note *models.Note, session *Session) (string, error) {
	if !note.IsPrivate {
		return note.Content, nil
	}
	if session == nil || !session.Unlocked() {
		return "", ErrUnlockRequired
	}
	return crypto.Decrypt(note.Content, session.Passphrase())
}

// Open fetches a note on behalf of userID. A user absent from the
// permissions map gets the access-denied view state (capability none, no
// note, no content); that is not an error, the note merely does not exist
// for them. A private note opens locked until Unlock succeeds.
func (s *noteService) Open(ctx context.Context, userID, noteID string) (*NoteView, error) {
	note, err := s.getNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	capability := Capability(note, userID)
	if capability == models.PermissionNone {
		return &NoteView{Capability: models.PermissionNone}, nil
	}

	view := &NoteView{Note: note, Capability: capability}
	if note.IsPrivate {
		view.Locked = true
	} else {
		view.Content = note.Content
	}
	return view, nil
}

// ListOwned returns the user's own notes, most recently updated first.
func (s *noteService) ListOwned(ctx context.Context, userID string, limit int) ([]*models.Note, error) {
	notes, err := s.noteRepo.ListByOwner(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes for owner '%s': %w", userID, err)
	}
	return notes, nil
}

// ListSharedWith returns notes shared with the user by someone else.
func (s *noteService) ListSharedWith(ctx context.Context, userID string, limit int) ([]*models.Note, error) {
	notes, err := s.noteRepo.ListSharedWith(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared notes for user '%s': %w", userID, err)
	}
	return notes, nil
}

// Unlock attempts to decrypt a private note with the supplied passphrase. On
// success the passphrase is bound to the session and the plaintext returned;
// on a wrong passphrase the session is left unchanged and the caller may
// retry. Unlocking a public note just returns its content.
func (s *noteService) Unlock(ctx context.Context, userID, noteID, passphrase string, session *Session) (string, error) {
	note, err := s.getNote(ctx, noteID)
	if err != nil {
		return "", err
	}
	if Capability(note, userID) == models.PermissionNone {
		return "", fmt.Errorf("%w: user '%s' on note '%s'", ErrAccessDenied, userID, noteID)
	}

	if !note.IsPrivate {
		return note.Content, nil
	}

	plaintext, err := crypto.Decrypt(note.Content, passphrase)
	if err != nil {
		return "", err
	}
	if session != nil {
		session.SetPassphrase(passphrase)
	}
	return plaintext, nil
}

// Update applies a debounced flush of editor commands. Before overwriting
// content it appends a version snapshot holding the previous visible
// plaintext, with savedAt set to the updatedAt of the state being superseded.
// A content change on a locked private note is rejected outright: without the
// session passphrase the new content cannot be re-encrypted. Commands that
// match the currently persisted state are dropped, so an idempotent flush
// writes nothing and snapshots nothing.
func (s *noteService) Update(ctx context.Context, userID string, session *Session, noteID string, cmds ...UpdateCommand) (*models.Note, error) {
	note, err := s.getNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if !HasAtLeast(Capability(note, userID), models.PermissionEditor) {
		return nil, fmt.Errorf("%w: user '%s' cannot edit note '%s'", ErrAccessDenied, userID, noteID)
	}

	var patch db.NoteFieldPatch
	for _, cmd := range cmds {
		cmd.applyTo(&patch)
	}

	// Drop no-op commands.
	if patch.Title != nil && *patch.Title == note.Title {
		patch.Title = nil
	}
	if patch.Tags != nil && equalTagSets(*patch.Tags, note.Tags) {
		patch.Tags = nil
	}

	notifyTitle := note.Title
	if patch.Title != nil {
		notifyTitle = *patch.Title
	}

	if patch.Content != nil {
		visible, err := s.visibleContent(note, session)
		if err != nil {
			return nil, err
		}
		if *patch.Content == visible {
			patch.Content = nil
		} else {
			snapshot := &models.NoteVersion{
				Title:   note.Title,
				Content: visible,
				SavedAt: note.UpdatedAt,
				SavedBy: userID,
			}
			if err := s.versions.Append(ctx, noteID, snapshot); err != nil {
				return nil, fmt.Errorf("aborting update of note '%s', snapshot failed: %w", noteID, err)
			}

			newContent := *patch.Content
			if note.IsPrivate {
				encrypted, err := crypto.Encrypt(newContent, session.Passphrase())
				if err != nil {
					return nil, err
				}
				newContent = encrypted
			}
			patch.Content = &newContent
		}
	}

	if patch.Title == nil && patch.Content == nil && patch.Tags == nil {
		return note, nil
	}

	if err := s.noteRepo.UpdateFields(ctx, noteID, patch); err != nil {
		return nil, fmt.Errorf("failed to update note '%s': %w", noteID, err)
	}

	applyPatch(note, patch)

	if err := s.notification.NotifyUpdate(ctx, note, userID, notifyTitle); err != nil {
		s.logger.Warn("update notification fan-out failed",
			zap.String("noteID", noteID), zap.Error(err))
	}
	return note, nil
}

// UpdateTags applies set-union and set-difference on the tag list and fans
// out an update notification like any other edit.
func (s *noteService) UpdateTags(ctx context.Context, userID, noteID string, add, remove []string) error {
	note, err := s.getNote(ctx, noteID)
	if err != nil {
		return err
	}
	if !HasAtLeast(Capability(note, userID), models.PermissionEditor) {
		return fmt.Errorf("%w: user '%s' cannot edit tags of note '%s'", ErrAccessDenied, userID, noteID)
	}
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}

	if err := s.noteRepo.UpdateTags(ctx, noteID, add, remove); err != nil {
		return fmt.Errorf("failed to update tags of note '%s': %w", noteID, err)
	}

	if err := s.notification.NotifyUpdate(ctx, note, userID, note.Title); err != nil {
		s.logger.Warn("tag notification fan-out failed",
			zap.String("noteID", noteID), zap.Error(err))
	}
	return nil
}

// SetPassword encrypts the currently visible plaintext under the passphrase
// and marks the note private. Re-keying an already-private note requires the
// session to be unlocked first. The session ends up bound to the new
// passphrase, so the owner keeps editing without re-unlocking.
func (s *noteService) SetPassword(ctx context.Context, userID string, session *Session, noteID, passphrase string) error {
	note, err := s.getNote(ctx, noteID)
	if err != nil {
		return err
	}
	if Capability(note, userID) != models.PermissionOwner {
		return fmt.Errorf("%w: user '%s' is not owner of note '%s'", ErrAccessDenied, userID, noteID)
	}
	if passphrase == "" {
		return crypto.ErrInvalidKey
	}

	plaintext, err := s.visibleContent(note, session)
	if err != nil {
		return err
	}

	encrypted, err := crypto.Encrypt(plaintext, passphrase)
	if err != nil {
		return err
	}
	if err := s.noteRepo.SetPrivacy(ctx, noteID, encrypted, true); err != nil {
		return fmt.Errorf("failed to set password on note '%s': %w", noteID, err)
	}

	if session != nil {
		session.SetPassphrase(passphrase)
	}
	return nil
}

// RemovePassword turns a private note public again. The note must be
// unlocked in this session: the persisted ciphertext is replaced by the
// decrypted plaintext, so the plaintext has to be recoverable first.
func (s *noteService) RemovePassword(ctx context.Context, userID string, session *Session, noteID string) error {
	note, err := s.getNote(ctx, noteID)
	if err != nil {
		return err
	}
	if Capability(note, userID) != models.PermissionOwner {
		return fmt.Errorf("%w: user '%s' is not owner of note '%s'", ErrAccessDenied, userID, noteID)
	}
	if !note.IsPrivate {
		return nil
	}

	plaintext, err := s.visibleContent(note, session)
	if err != nil {
		return err
	}

	if err := s.noteRepo.SetPrivacy(ctx, noteID, plaintext, false); err != nil {
		return fmt.Errorf("failed to remove password from note '%s': %w", noteID, err)
	}
	if session != nil {
		session.Clear()
	}
	return nil
}

// RestoreVersion replaces the note's title and content with a snapshot's.
// The pre-restore state is itself appended to the version log first, so a
// restore is always recoverable. Restoring onto a locked private note is
// rejected; the restored content must be re-encrypted under the session
// passphrase.
func (s *noteService) RestoreVersion(ctx context.Context, userID string, session *Session, noteID, versionID string) error {
	note, err := s.getNote(ctx, noteID)
	if err != nil {
		return err
	}
	if !HasAtLeast(Capability(note, userID), models.PermissionEditor) {
		return fmt.Errorf("%w: user '%s' cannot restore versions of note '%s'", ErrAccessDenied, userID, noteID)
	}

	version, err := s.versions.Get(ctx, noteID, versionID)
	if err != nil {
		return err
	}

	visible, err := s.visibleContent(note, session)
	if err != nil {
		return err
	}

	contentChanged := version.Content != visible
	titleChanged := version.Title != note.Title
	if !contentChanged && !titleChanged {
		return nil
	}

	var patch db.NoteFieldPatch
	if titleChanged {
		title := version.Title
		patch.Title = &title
	}
	if contentChanged {
		snapshot := &models.NoteVersion{
			Title:   note.Title,
			Content: visible,
			SavedAt: note.UpdatedAt,
			SavedBy: userID,
		}
		if err := s.versions.Append(ctx, noteID, snapshot); err != nil {
			return fmt.Errorf("aborting restore of note '%s', snapshot failed: %w", noteID, err)
		}

		restored := version.Content
		if note.IsPrivate {
			encrypted, err := crypto.Encrypt(restored, session.Passphrase())
			if err != nil {
				return err
			}
			restored = encrypted
		}
		patch.Content = &restored
	}

	if err := s.noteRepo.UpdateFields(ctx, noteID, patch); err != nil {
		return fmt.Errorf("failed to restore version '%s' of note '%s': %w", versionID, noteID, err)
	}

	applyPatch(note, patch)
	if err := s.notification.NotifyUpdate(ctx, note, userID, version.Title); err != nil {
		s.logger.Warn("restore notification fan-out failed",
			zap.String("noteID", noteID), zap.Error(err))
	}
	return nil
}

// Delete removes a note and cascades its version log. Versions go first;
// the two steps are not atomic, so a failure after the cascade leaves a note
// without history rather than history without a note.
func (s *noteService) Delete(ctx context.Context, userID, noteID string) error {
	note, err := s.getNote(ctx, noteID)
	if err != nil {
		return err
	}
	if Capability(note, userID) != models.PermissionOwner {
		return fmt.Errorf("%w: user '%s' is not owner of note '%s'", ErrAccessDenied, userID, noteID)
	}

	if err := s.versions.CascadeDelete(ctx, noteID); err != nil {
		return fmt.Errorf("failed to delete versions of note '%s': %w", noteID, err)
	}
	if err := s.noteRepo.Delete(ctx, noteID); err != nil {
		return fmt.Errorf("failed to delete note '%s': %w", noteID, err)
	}
	return nil
}

// Watch exposes remote changes to a note as explicit events on a channel
// with a cancel handle. Conflict policy for a remote change arriving while
// the caller holds unsaved local edits is last-applied-wins; the caller
// decides whether to reload or keep typing.
func (s *noteService) Watch(ctx context.Context, userID, noteID string) (<-chan db.NoteEvent, db.CancelFunc, error) {
	note, err := s.getNote(ctx, noteID)
	if err != nil {
		return nil, nil, err
	}
	if Capability(note, userID) == models.PermissionNone {
		return nil, nil, fmt.Errorf("%w: user '%s' cannot watch note '%s'", ErrAccessDenied, userID, noteID)
	}
	return s.noteRepo.Watch(ctx, noteID)
}

// applyPatch mirrors a successful store write onto the in-memory note so the
// returned value matches what was persisted.
func applyPatch(note *models.Note, patch db.NoteFieldPatch) {
	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Tags != nil {
		note.Tags = *patch.Tags
	}
	note.UpdatedAt = time.Now().UTC()
}

// equalTagSets compares tag lists ignoring order and duplicates; insertion
// order is display-only.
func equalTagSets(a, b []string) bool {
	seen := make(map[string]bool, len(a))
	for _, t := range a {
		seen[t] = true
	}
	other := make(map[string]bool, len(b))
	for _, t := range b {
		other[t] = true
	}
	if len(seen) != len(other) {
		return false
	}
	for t := range seen {
		if !other[t] {
			return false
		}
	}
	return true
}
