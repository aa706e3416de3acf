package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/quillnote/internal/core"
	"github.com/example/quillnote/internal/models"
)

// SharingHandler handles the collaborator management endpoints nested under a
// note.
type SharingHandler struct {
	sharingService core.SharingService
	logger         *zap.Logger
}

// NewSharingHandler creates a new SharingHandler.
func NewSharingHandler(ss core.SharingService, logger *zap.Logger) *SharingHandler {
	return &SharingHandler{sharingService: ss, logger: logger}
}

// ShareNote handles POST /notes/:noteId/share
func (h *SharingHandler) ShareNote(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	var req models.ShareNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	recipient, err := h.sharingService.ShareWith(c.Request.Context(), userID, noteID, req.Email, req.Permission)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CollaboratorResponse{User: *recipient, Permission: req.Permission})
}

// UpdateShare handles PUT /notes/:noteId/share/:userId
func (h *SharingHandler) UpdateShare(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")
	targetUserID := c.Param("userId")

	var req models.UpdateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.sharingService.ChangePermission(c.Request.Context(), userID, noteID, targetUserID, req.Permission); err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Permission updated"})
}

// RemoveShare handles DELETE /notes/:noteId/share/:userId
func (h *SharingHandler) RemoveShare(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")
	targetUserID := c.Param("userId")

	if err := h.sharingService.RemoveCollaborator(c.Request.Context(), userID, noteID, targetUserID); err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCollaborators handles GET /notes/:noteId/collaborators. The caller is
// excluded from their own listing.
func (h *SharingHandler) ListCollaborators(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	noteID := c.Param("noteId")

	collaborators, err := h.sharingService.ListCollaborators(c.Request.Context(), userID, noteID, userID)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}

	responses := make([]CollaboratorResponse, 0, len(collaborators))
	for _, col := range collaborators {
		responses = append(responses, CollaboratorResponse{
			User:       col.Profile,
			Permission: col.Permission,
		})
	}
	c.JSON(http.StatusOK, responses)
}
