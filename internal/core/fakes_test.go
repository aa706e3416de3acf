package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/quillnote/internal/db"
	"github.com/example/quillnote/internal/models"
)

// In-memory repository fakes shared by the service tests. They reproduce the
// store contract (copy-on-read, updatedAt refresh on writes, not-found
// sentinels) without touching Firestore.

type fakeNoteRepo struct {
	mu     sync.Mutex
	notes  map[string]*models.Note
	nextID int

	failUpdateFields error
	failDelete       error
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: map[string]*models.Note{}}
}

func copyNote(n *models.Note) *models.Note {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	c.Permissions = make(map[string]models.Permission, len(n.Permissions))
	for k, v := range n.Permissions {
		c.Permissions[k] = v
	}
	return &c
}

// seed inserts a note directly, bypassing Create, for test setup.
func (r *fakeNoteRepo) seed(n *models.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[n.ID] = copyNote(n)
}

func (r *fakeNoteRepo) get(id string) *models.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyNote(r.notes[id])
}

func (r *fakeNoteRepo) Create(ctx context.Context, note *models.Note) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("note-%d", r.nextID)
	stored := copyNote(note)
	stored.ID = id
	r.notes[id] = stored
	return id, nil
}

func (r *fakeNoteRepo) GetByID(ctx context.Context, noteID string) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return copyNote(n), nil
}

func (r *fakeNoteRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Note
	for _, n := range r.notes {
		if n.OwnerID == ownerID {
			out = append(out, copyNote(n))
		}
	}
	return out, nil
}

func (r *fakeNoteRepo) ListSharedWith(ctx context.Context, userID string, limit int) ([]*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Note
	for _, n := range r.notes {
		p := n.Permissions[userID]
		if p == models.PermissionEditor || p == models.PermissionViewer {
			out = append(out, copyNote(n))
		}
	}
	return out, nil
}

func (r *fakeNoteRepo) UpdateFields(ctx context.Context, noteID string, patch db.NoteFieldPatch) error {
	if r.failUpdateFields != nil {
		return r.failUpdateFields
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok {
		return db.ErrNotFound
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.Tags != nil {
		n.Tags = append([]string(nil), *patch.Tags...)
	}
	n.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeNoteRepo) UpdateTags(ctx context.Context, noteID string, add, remove []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok {
		return db.ErrNotFound
	}
	for _, t := range add {
		found := false
		for _, have := range n.Tags {
			if have == t {
				found = true
				break
			}
		}
		if !found {
			n.Tags = append(n.Tags, t)
		}
	}
	for _, t := range remove {
		kept := n.Tags[:0]
		for _, have := range n.Tags {
			if have != t {
				kept = append(kept, have)
			}
		}
		n.Tags = kept
	}
	n.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeNoteRepo) SetPrivacy(ctx context.Context, noteID, content string, isPrivate bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok {
		return db.ErrNotFound
	}
	n.Content = content
	n.IsPrivate = isPrivate
	n.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeNoteRepo) SetPermission(ctx context.Context, noteID, userID string, p models.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok {
		return db.ErrNotFound
	}
	n.Permissions[userID] = p
	return nil
}

func (r *fakeNoteRepo) RemovePermission(ctx context.Context, noteID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok {
		return db.ErrNotFound
	}
	delete(n.Permissions, userID)
	return nil
}

func (r *fakeNoteRepo) Delete(ctx context.Context, noteID string) error {
	if r.failDelete != nil {
		return r.failDelete
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notes, noteID)
	return nil
}

func (r *fakeNoteRepo) Watch(ctx context.Context, noteID string) (<-chan db.NoteEvent, db.CancelFunc, error) {
	ch := make(chan db.NoteEvent, 1)
	var once sync.Once
	cancel := func() { once.Do(func() { close(ch) }) }
	return ch, cancel, nil
}

type storedVersion struct {
	id      string
	version models.NoteVersion
}

type fakeVersionRepo struct {
	mu       sync.Mutex
	versions map[string][]storedVersion // noteID -> append order
	nextID   int

	failAppend    error
	failDeleteAll error
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{versions: map[string][]storedVersion{}}
}

func (r *fakeVersionRepo) count(noteID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.versions[noteID])
}

func (r *fakeVersionRepo) last(noteID string) models.NoteVersion {
	r.mu.Lock()
	defer r.mu.Unlock()
	vs := r.versions[noteID]
	return vs[len(vs)-1].version
}

func (r *fakeVersionRepo) Append(ctx context.Context, noteID string, version *models.NoteVersion) (string, error) {
	if r.failAppend != nil {
		return "", r.failAppend
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("v-%d", r.nextID)
	r.versions[noteID] = append(r.versions[noteID], storedVersion{id: id, version: *version})
	return id, nil
}

func (r *fakeVersionRepo) GetByID(ctx context.Context, noteID, versionID string) (*models.NoteVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sv := range r.versions[noteID] {
		if sv.id == versionID {
			v := sv.version
			v.ID = sv.id
			return &v, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *fakeVersionRepo) ListByNote(ctx context.Context, noteID string, limit int, startAfter string) ([]*models.NoteVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.versions[noteID]
	var out []*models.NoteVersion
	started := startAfter == ""
	for i := len(stored) - 1; i >= 0; i-- { // newest first
		if !started {
			if stored[i].id == startAfter {
				started = true
			}
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		v := stored[i].version
		v.ID = stored[i].id
		out = append(out, &v)
	}
	return out, nil
}

func (r *fakeVersionRepo) DeleteAll(ctx context.Context, noteID string) error {
	if r.failDeleteAll != nil {
		return r.failDeleteAll
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.versions, noteID)
	return nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*models.Notification
	nextID        int

	failCreateAll error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) all() []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Notification(nil), r.notifications...)
}

func (r *fakeNotificationRepo) CreateAll(ctx context.Context, notifications []*models.Notification) error {
	if r.failCreateAll != nil {
		return r.failCreateAll
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range notifications {
		r.nextID++
		c := *n
		c.ID = fmt.Sprintf("ntf-%d", r.nextID)
		c.CreatedAt = time.Now().UTC()
		r.notifications = append(r.notifications, &c)
	}
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].RecipientID != recipientID {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		c := *r.notifications[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		for _, n := range r.notifications {
			if n.ID == id {
				n.IsRead = true
			}
		}
	}
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.UserProfile

	failGetByID error
}

func newFakeUserRepo(users ...*models.UserProfile) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.UserProfile{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	if r.failGetByID != nil {
		return nil, r.failGetByID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *fakeUserRepo) Upsert(ctx context.Context, profile *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *profile
	r.users[profile.ID] = &c
	return nil
}

type pushRecord struct {
	UserID  string
	Payload interface{}
}

type fakePusher struct {
	mu     sync.Mutex
	pushes []pushRecord
}

func (p *fakePusher) Push(userID string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushRecord{UserID: userID, Payload: payload})
}

func (p *fakePusher) recipients() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, r := range p.pushes {
		out = append(out, r.UserID)
	}
	return out
}

type sentInvite struct {
	RecipientEmail string
	SenderName     string
	NoteTitle      string
}

type fakeMailer struct {
	mu      sync.Mutex
	invites []sentInvite
	failErr error
}

func (m *fakeMailer) SendShareInvite(recipientEmail, senderName, noteTitle string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites = append(m.invites, sentInvite{recipientEmail, senderName, noteTitle})
	return nil
}
