package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/quillnote/internal/core"
)

// UserHandler handles profile initialization and lookup.
type UserHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, logger: logger}
}

// InitializeProfile handles POST /users/initialize. Clients call it after a
// Firebase login so the users collection stays in sync with Auth; without the
// profile document, share-by-email cannot find this user.
func (h *UserHandler) InitializeProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	email := c.GetString("userEmail")
	displayName := c.GetString("userDisplayName")
	photoURL := c.GetString("userPhotoURL")

	profile, created, err := h.userService.GetOrCreate(c.Request.Context(), userID, email, displayName, photoURL)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, profile)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetCurrentProfile handles GET /users/me
func (h *UserHandler) GetCurrentProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	profile, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
