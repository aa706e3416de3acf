package core

import "github.com/example/quillnote/internal/models"

// capabilityRank orders permission levels for enforcement: each level can do
// everything the lesser levels can.
var capabilityRank = map[models.Permission]int{
	models.PermissionNone:   0,
	models.PermissionViewer: 1,
	models.PermissionEditor: 2,
	models.PermissionOwner:  3,
}

// Capability returns the effective permission userID holds on note. A user
// with no entry in the permissions map, malformed input included, has no
// access at all.
func Capability(note *models.Note, userID string) models.Permission {
	if note == nil || userID == "" || note.Permissions == nil {
		return models.PermissionNone
	}
	p, ok := note.Permissions[userID]
	if !ok {
		return models.PermissionNone
	}
	switch p {
	case models.PermissionOwner, models.PermissionEditor, models.PermissionViewer:
		return p
	default:
		return models.PermissionNone
	}
}

// HasAtLeast reports whether capability p grants everything min does.
func HasAtLeast(p, min models.Permission) bool {
	return capabilityRank[p] >= capabilityRank[min]
}

// validShareLevel reports whether p is a level an owner may grant to a
// collaborator. Owner itself is never grantable.
func validShareLevel(p models.Permission) bool {
	return p == models.PermissionEditor || p == models.PermissionViewer
}
