package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/quillnote/internal/models"
)

func newNotificationFixture(users ...*models.UserProfile) (*fakeNotificationRepo, *fakePusher, NotificationService) {
	repo := newFakeNotificationRepo()
	pusher := &fakePusher{}
	svc := NewNotificationService(repo, newFakeUserRepo(users...), nil, pusher, zap.NewNop())
	return repo, pusher, svc
}

func sharedNote() *models.Note {
	return &models.Note{
		ID:      "n1",
		Title:   "Meeting notes",
		OwnerID: "alice",
		Permissions: map[string]models.Permission{
			"alice": models.PermissionOwner,
			"bob":   models.PermissionEditor,
			"carol": models.PermissionViewer,
		},
	}
}

func TestNotificationService_NotifyUpdate(t *testing.T) {
	repo, pusher, svc := newNotificationFixture(aliceProfile, bobProfile)

	err := svc.NotifyUpdate(context.Background(), sharedNote(), "bob", "Renamed title")
	require.NoError(t, err)

	records := repo.all()
	require.Len(t, records, 2, "everyone but the actor")
	recipients := map[string]bool{}
	for _, n := range records {
		recipients[n.RecipientID] = true
		assert.Equal(t, "bob", n.SenderID)
		assert.Equal(t, "Bob", n.SenderProfile.DisplayName)
		assert.Equal(t, "Renamed title", n.NoteTitle)
		assert.Equal(t, models.NotificationUpdate, n.Type)
		assert.False(t, n.IsRead)
	}
	assert.True(t, recipients["alice"])
	assert.True(t, recipients["carol"])
	assert.False(t, recipients["bob"], "actor is never notified of their own edit")

	assert.ElementsMatch(t, []string{"alice", "carol"}, pusher.recipients())
}

func TestNotificationService_NotifyUpdate_SoleCollaborator(t *testing.T) {
	repo, pusher, svc := newNotificationFixture(aliceProfile)
	note := &models.Note{
		ID:          "n1",
		OwnerID:     "alice",
		Permissions: map[string]models.Permission{"alice": models.PermissionOwner},
	}

	require.NoError(t, svc.NotifyUpdate(context.Background(), note, "alice", "Title"))
	assert.Empty(t, repo.all())
	assert.Empty(t, pusher.recipients())
}

func TestNotificationService_NotifyShare(t *testing.T) {
	repo, _, svc := newNotificationFixture(aliceProfile, bobProfile)

	err := svc.NotifyShare(context.Background(), sharedNote(), "alice", "bob")
	require.NoError(t, err)

	records := repo.all()
	require.Len(t, records, 1)
	assert.Equal(t, "bob", records[0].RecipientID)
	assert.Equal(t, models.NotificationShare, records[0].Type)

	t.Run("self recipient is dropped", func(t *testing.T) {
		require.NoError(t, svc.NotifyShare(context.Background(), sharedNote(), "alice", "alice"))
		assert.Len(t, repo.all(), 1)
	})
}

func TestNotificationService_FanOutFailure(t *testing.T) {
	repo, pusher, svc := newNotificationFixture(aliceProfile, bobProfile)
	repo.failCreateAll = assert.AnError

	err := svc.NotifyUpdate(context.Background(), sharedNote(), "bob", "Title")
	assert.Error(t, err)
	assert.Empty(t, pusher.recipients(), "no pushes when the batch write fails")
}

func TestNotificationService_ListAndMarkAllRead(t *testing.T) {
	_, _, svc := newNotificationFixture(aliceProfile, bobProfile)
	ctx := context.Background()

	require.NoError(t, svc.NotifyUpdate(ctx, sharedNote(), "bob", "First"))
	require.NoError(t, svc.NotifyUpdate(ctx, sharedNote(), "bob", "Second"))

	list, err := svc.List(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].NoteTitle, "newest first")
	for _, n := range list {
		assert.False(t, n.IsRead)
	}

	require.NoError(t, svc.MarkAllRead(ctx, "alice"))
	list, err = svc.List(ctx, "alice", 0)
	require.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.IsRead)
	}

	// Carol's copies are untouched by alice's sweep.
	carols, err := svc.List(ctx, "carol", 0)
	require.NoError(t, err)
	require.Len(t, carols, 2)
	for _, n := range carols {
		assert.False(t, n.IsRead)
	}

	t.Run("idempotent when nothing unread", func(t *testing.T) {
		assert.NoError(t, svc.MarkAllRead(ctx, "alice"))
	})
}
