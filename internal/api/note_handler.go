package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/quillnote/internal/core"
	"github.com/example/quillnote/internal/crypto"
	"github.com/example/quillnote/internal/models"
)

// NoteHandler handles API endpoints for notes, their protection state and
// their version log.
type NoteHandler struct {
	noteService    core.NoteService
	versionService core.VersionService
	logger         *zap.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(ns core.NoteService, vs core.VersionService, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{noteService: ns, versionService: vs, logger: logger}
}

// mapCoreErrorToStatus translates service sentinels into HTTP statuses.
func mapCoreErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrNoteNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrNoteNotFound.Error()}
	case errors.Is(err, core.ErrVersionNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrVersionNotFound.Error()}
	case errors.Is(err, core.ErrAccessDenied):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrAccessDenied.Error()}
	case errors.Is(err, core.ErrUnlockRequired):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrUnlockRequired.Error()}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrUserNotFound.Error()}
	case errors.Is(err, core.ErrSelfShare):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrSelfShare.Error()}
	case errors.Is(err, core.ErrOwnerImmutable):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrOwnerImmutable.Error()}
	case errors.Is(err, core.ErrNotACollaborator):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrNotACollaborator.Error()}
	case errors.Is(err, core.ErrInvalidPermission):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidPermission.Error()}
	case errors.Is(err, crypto.ErrDecryptionFailed):
		// A wrong passphrase is a client-side credential problem.
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: crypto.ErrDecryptionFailed.Error()}
	case errors.Is(err, crypto.ErrInvalidKey):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: crypto.ErrInvalidKey.Error()}
	default:
		logger.Error("unhandled service error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// requireUserID pulls the authenticated user ID set by the auth middleware.
func requireUserID(c *gin.Context) (string, bool) {
	rawUserID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return "", false
	}
	userID, ok := rawUserID.(string)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid user ID in context"})
		return "", false
	}
	return userID, true
}

// sessionFromPassphrase rebuilds the transient unlock session from the
// client-sent passphrase. Never stored server-side.
func sessionFromPassphrase(passphrase string) *core.Session {
	session := core.NewSession()
	if passphrase != "" {
		session.SetPassphrase(passphrase)
	}
	return session
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// CreateNote handles POST /notes
func (h *NoteHandler) CreateNote(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req models.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	note, err := h.noteService.Create(c.Request.Context(), userID, req)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// ListNotes handles GET /notes, with ?shared=true switching to the
// shared-with-me listing.
func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var notes []*models.Note
	var err error
	if c.Query("shared") == "true" {
		notes, err = h.noteService.ListSharedWith(c.Request.Context(), userID, queryLimit(c))
	} else {
		notes, err = h.noteService.ListOwned(c.Request.Context(), userID, queryLimit(c))
	}
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// GetNote handles GET /notes/:noteId
func (h *NoteHandler) GetNote(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	view, err := h.noteService.Open(c.Request.Context(), userID, noteID)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	if view.Capability == models.PermissionNone {
		// The note exists but is invisible to this user.
		c.JSON(http.StatusForbidden, ErrorResponse{Error: core.ErrAccessDenied.Error()})
		return
	}
	c.JSON(http.StatusOK, newNoteViewResponse(view))
}

// UnlockNote handles POST /notes/:noteId/unlock
func (h *NoteHandler) UnlockNote(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	var req models.PassphraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	content, err := h.noteService.Unlock(c.Request.Context(), userID, noteID, req.Passphrase, nil)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, UnlockResponse{Content: content})
}

// UpdateNote handles PATCH /notes/:noteId. The body is a debounced editor
// flush; absent fields are left untouched.
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	var req models.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	var cmds []core.UpdateCommand
	if req.Title != nil {
		cmds = append(cmds, core.SetTitle{Title: *req.Title})
	}
	if req.Content != nil {
		cmds = append(cmds, core.SetContent{Content: *req.Content})
	}
	if req.Tags != nil {
		cmds = append(cmds, core.SetTags{Tags: *req.Tags})
	}
	if len(cmds) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "At least one field must be provided"})
		return
	}

	session := sessionFromPassphrase(req.Passphrase)
	note, err := h.noteService.Update(c.Request.Context(), userID, session, noteID, cmds...)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// UpdateTags handles POST /notes/:noteId/tags
func (h *NoteHandler) UpdateTags(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	var req models.TagUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.noteService.UpdateTags(c.Request.Context(), userID, noteID, req.Add, req.Remove); err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Tags updated"})
}

// DeleteNote handles DELETE /notes/:noteId
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	if err := h.noteService.Delete(c.Request.Context(), userID, noteID); err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetPassword handles POST /notes/:noteId/password
func (h *NoteHandler) SetPassword(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	var req models.PassphraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	// When re-keying an already-private note the client sends the current
	// passphrase alongside the new one.
	session := sessionFromPassphrase(req.Current)
	if err := h.noteService.SetPassword(c.Request.Context(), userID, session, noteID, req.Passphrase); err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Password set"})
}

// RemovePassword handles DELETE /notes/:noteId/password. The body must carry
// the current passphrase; removal re-persists the decrypted plaintext.
func (h *NoteHandler) RemovePassword(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	var req models.PassphraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	session := sessionFromPassphrase(req.Passphrase)
	if err := h.noteService.RemovePassword(c.Request.Context(), userID, session, noteID); err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Password removed"})
}

// ListVersions handles GET /notes/:noteId/versions
func (h *NoteHandler) ListVersions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	// Listing versions requires at least read access to the note.
	view, err := h.noteService.Open(c.Request.Context(), userID, noteID)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	if view.Capability == models.PermissionNone {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: core.ErrAccessDenied.Error()})
		return
	}

	entries, err := h.versionService.List(c.Request.Context(), noteID, queryLimit(c), c.Query("startAfter"))
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}

	responses := make([]VersionResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, VersionResponse{
			ID:      e.Version.ID,
			Title:   e.Version.Title,
			Content: e.Version.Content,
			SavedAt: e.Version.SavedAt,
			SavedBy: e.Author,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// RestoreVersion handles POST /notes/:noteId/versions/:versionId/restore
func (h *NoteHandler) RestoreVersion(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")
	versionID := c.Param("versionId")

	// Passphrase is only needed for private notes; the body is optional.
	var req models.UpdateNoteRequest
	_ = c.ShouldBindJSON(&req)

	session := sessionFromPassphrase(req.Passphrase)
	if err := h.noteService.RestoreVersion(c.Request.Context(), userID, session, noteID, versionID); err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Version restored"})
}
