package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/quillnote/internal/core"
	"github.com/example/quillnote/internal/db"
	"github.com/example/quillnote/internal/middleware"
	"github.com/example/quillnote/internal/ws"
)

// SetupRoutes wires every handler under /api/v1. Global middleware (logging,
// recovery, CORS) is applied to the router before this is called, in main.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	wsManager *ws.Manager,
	userService core.UserService,
	noteService core.NoteService,
	versionService core.VersionService,
	sharingService core.SharingService,
	notificationService core.NotificationService,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be secured")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient, logger)

	userHandler := NewUserHandler(userService, logger)
	noteHandler := NewNoteHandler(noteService, versionService, logger)
	sharingHandler := NewSharingHandler(sharingService, logger)
	notificationHandler := NewNotificationHandler(notificationService, logger)
	streamHandler := NewStreamHandler(wsManager, firebaseAuthClient, logger)

	apiV1 := router.Group("/api/v1")
	{
		users := apiV1.Group("/users", authMW.VerifyToken())
		{
			users.POST("/initialize", userHandler.InitializeProfile)
			users.GET("/me", userHandler.GetCurrentProfile)
		}

		notes := apiV1.Group("/notes", authMW.VerifyToken())
		{
			notes.POST("", noteHandler.CreateNote)
			notes.GET("", noteHandler.ListNotes)
			notes.GET("/:noteId", noteHandler.GetNote)
			notes.PATCH("/:noteId", noteHandler.UpdateNote)
			notes.DELETE("/:noteId", noteHandler.DeleteNote)

			notes.POST("/:noteId/unlock", noteHandler.UnlockNote)
			notes.POST("/:noteId/password", noteHandler.SetPassword)
			notes.DELETE("/:noteId/password", noteHandler.RemovePassword)
			notes.POST("/:noteId/tags", noteHandler.UpdateTags)

			notes.GET("/:noteId/versions", noteHandler.ListVersions)
			notes.POST("/:noteId/versions/:versionId/restore", noteHandler.RestoreVersion)

			notes.POST("/:noteId/share", sharingHandler.ShareNote)
			notes.PUT("/:noteId/share/:userId", sharingHandler.UpdateShare)
			notes.DELETE("/:noteId/share/:userId", sharingHandler.RemoveShare)
			notes.GET("/:noteId/collaborators", sharingHandler.ListCollaborators)
		}

		notifications := apiV1.Group("/notifications")
		{
			notifications.GET("", authMW.VerifyToken(), notificationHandler.ListNotifications)
			notifications.POST("/read", authMW.VerifyToken(), notificationHandler.MarkAllRead)
			// The stream authenticates inside the handler: websocket
			// handshakes cannot carry an Authorization header from browsers.
			notifications.GET("/stream", streamHandler.Connect)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured under /api/v1 and /health")
}
