package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/quillnote/internal/models"
)

type sharingFixture struct {
	notes         *fakeNoteRepo
	users         *fakeUserRepo
	notifications *fakeNotificationRepo
	pusher        *fakePusher
	mailer        *fakeMailer
	svc           SharingService
}

func newSharingFixture(users ...*models.UserProfile) *sharingFixture {
	logger := zap.NewNop()
	f := &sharingFixture{
		notes:         newFakeNoteRepo(),
		users:         newFakeUserRepo(users...),
		notifications: newFakeNotificationRepo(),
		pusher:        &fakePusher{},
		mailer:        &fakeMailer{},
	}
	notifSvc := NewNotificationService(f.notifications, f.users, nil, f.pusher, logger)
	f.svc = NewSharingService(f.notes, f.users, notifSvc, f.mailer, nil, logger)
	return f
}

func (f *sharingFixture) seedNote(id, owner string, shared map[string]models.Permission) {
	perms := map[string]models.Permission{owner: models.PermissionOwner}
	for uid, p := range shared {
		perms[uid] = p
	}
	f.notes.seed(&models.Note{
		ID:          id,
		Title:       "Meeting notes",
		Content:     "original content",
		OwnerID:     owner,
		Permissions: perms,
		UpdatedAt:   time.Now().UTC(),
	})
}

var (
	aliceProfile = &models.UserProfile{ID: "alice", Email: "alice@example.com", DisplayName: "Alice"}
	bobProfile   = &models.UserProfile{ID: "bob", Email: "bob@example.com", DisplayName: "Bob"}
)

func TestSharingService_ShareWith(t *testing.T) {
	f := newSharingFixture(aliceProfile, bobProfile)
	f.seedNote("n1", "alice", nil)
	ctx := context.Background()

	recipient, err := f.svc.ShareWith(ctx, "alice", "n1", "Bob@Example.com", models.PermissionEditor)
	require.NoError(t, err)
	assert.Equal(t, "bob", recipient.ID)
	assert.Equal(t, models.PermissionEditor, f.notes.get("n1").Permissions["bob"])

	// Exactly one share notification, addressed to the recipient only.
	records := f.notifications.all()
	require.Len(t, records, 1)
	assert.Equal(t, "bob", records[0].RecipientID)
	assert.Equal(t, "alice", records[0].SenderID)
	assert.Equal(t, models.NotificationShare, records[0].Type)
	assert.Equal(t, "Meeting notes", records[0].NoteTitle)

	require.Len(t, f.mailer.invites, 1)
	assert.Equal(t, "bob@example.com", f.mailer.invites[0].RecipientEmail)
	assert.Equal(t, "Alice", f.mailer.invites[0].SenderName)
}

func TestSharingService_ShareWith_Rejections(t *testing.T) {
	f := newSharingFixture(aliceProfile, bobProfile)
	f.seedNote("n1", "alice", map[string]models.Permission{"bob": models.PermissionEditor})
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   string
		noteID  string
		email   string
		level   models.Permission
		wantErr error
	}{
		{"invalid level", "alice", "n1", "bob@example.com", models.PermissionOwner, ErrInvalidPermission},
		{"missing note", "alice", "missing", "bob@example.com", models.PermissionViewer, ErrNoteNotFound},
		{"non-owner actor", "bob", "n1", "alice@example.com", models.PermissionViewer, ErrAccessDenied},
		{"unknown email", "alice", "n1", "nobody@example.com", models.PermissionViewer, ErrUserNotFound},
		{"self share", "alice", "n1", "alice@example.com", models.PermissionViewer, ErrSelfShare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ShareWith(ctx, tt.actor, tt.noteID, tt.email, tt.level)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.notifications.all(), "rejected shares never notify")
}

func TestSharingService_ShareWith_MailFailureIsNonFatal(t *testing.T) {
	f := newSharingFixture(aliceProfile, bobProfile)
	f.seedNote("n1", "alice", nil)
	f.mailer.failErr = assert.AnError

	_, err := f.svc.ShareWith(context.Background(), "alice", "n1", "bob@example.com", models.PermissionViewer)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionViewer, f.notes.get("n1").Permissions["bob"])
}

func TestSharingService_ChangePermission(t *testing.T) {
	f := newSharingFixture(aliceProfile, bobProfile)
	f.seedNote("n1", "alice", map[string]models.Permission{"bob": models.PermissionViewer})
	ctx := context.Background()

	require.NoError(t, f.svc.ChangePermission(ctx, "alice", "n1", "bob", models.PermissionEditor))
	assert.Equal(t, models.PermissionEditor, f.notes.get("n1").Permissions["bob"])

	t.Run("owner entry is immutable", func(t *testing.T) {
		err := f.svc.ChangePermission(ctx, "alice", "n1", "alice", models.PermissionViewer)
		assert.ErrorIs(t, err, ErrOwnerImmutable)
	})
	t.Run("not a collaborator", func(t *testing.T) {
		err := f.svc.ChangePermission(ctx, "alice", "n1", "mallory", models.PermissionViewer)
		assert.ErrorIs(t, err, ErrNotACollaborator)
	})
	t.Run("non-owner actor", func(t *testing.T) {
		err := f.svc.ChangePermission(ctx, "bob", "n1", "bob", models.PermissionViewer)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestSharingService_RemoveCollaborator(t *testing.T) {
	f := newSharingFixture(aliceProfile, bobProfile)
	f.seedNote("n1", "alice", map[string]models.Permission{"bob": models.PermissionEditor})
	ctx := context.Background()

	t.Run("owner cannot be removed", func(t *testing.T) {
		err := f.svc.RemoveCollaborator(ctx, "alice", "n1", "alice")
		assert.ErrorIs(t, err, ErrOwnerImmutable)
	})

	require.NoError(t, f.svc.RemoveCollaborator(ctx, "alice", "n1", "bob"))
	_, ok := f.notes.get("n1").Permissions["bob"]
	assert.False(t, ok, "entry is deleted, not demoted")

	t.Run("already removed", func(t *testing.T) {
		err := f.svc.RemoveCollaborator(ctx, "alice", "n1", "bob")
		assert.ErrorIs(t, err, ErrNotACollaborator)
	})
}

func TestSharingService_ListCollaborators(t *testing.T) {
	f := newSharingFixture(aliceProfile, bobProfile)
	f.seedNote("n1", "alice", map[string]models.Permission{
		"bob":   models.PermissionEditor,
		"ghost": models.PermissionViewer, // no profile on record
	})
	ctx := context.Background()

	t.Run("stranger denied", func(t *testing.T) {
		_, err := f.svc.ListCollaborators(ctx, "mallory", "n1", "")
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	collaborators, err := f.svc.ListCollaborators(ctx, "bob", "n1", "bob")
	require.NoError(t, err)
	require.Len(t, collaborators, 2, "caller excluded, everyone else listed")

	byID := map[string]Collaborator{}
	for _, c := range collaborators {
		byID[c.Profile.ID] = c
	}
	assert.Equal(t, models.PermissionOwner, byID["alice"].Permission)
	assert.Equal(t, "Alice", byID["alice"].Profile.DisplayName)
	assert.Equal(t, "Unknown User", byID["ghost"].Profile.DisplayName,
		"missing profile degrades to placeholder")
}
