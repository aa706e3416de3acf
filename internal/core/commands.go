package core

import "github.com/example/quillnote/internal/db"

// UpdateCommand is one mutation of a note's editable fields. The set of
// commands is closed so the note service can validate preconditions
// exhaustively per command instead of branching on an open field bag.
type UpdateCommand interface {
	applyTo(patch *db.NoteFieldPatch)
}

// SetTitle replaces the note's title. Titles are never encrypted.
type SetTitle struct {
	Title string
}

func (c SetTitle) applyTo(patch *db.NoteFieldPatch) {
	title := c.Title
	patch.Title = &title
}

// SetContent replaces the note's content wholesale (last writer wins at the
// field level; there is no merge logic).
type SetContent struct {
	Content string
}

func (c SetContent) applyTo(patch *db.NoteFieldPatch) {
	content := c.Content
	patch.Content = &content
}

// SetTags replaces the full tag list.
type SetTags struct {
	Tags []string
}

func (c SetTags) applyTo(patch *db.NoteFieldPatch) {
	tags := append([]string(nil), c.Tags...)
	patch.Tags = &tags
}
