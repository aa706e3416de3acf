package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/quillnote/internal/api"
	"github.com/example/quillnote/internal/cache"
	"github.com/example/quillnote/internal/config"
	"github.com/example/quillnote/internal/core"
	"github.com/example/quillnote/internal/db"
	"github.com/example/quillnote/internal/mailer"
	"github.com/example/quillnote/internal/middleware"
	"github.com/example/quillnote/internal/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load application configuration: %v", err)
	}

	var zapLogger *zap.Logger
	if strings.ToLower(appConfig.GinMode) == "release" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("Failed to initialize Firestore and Firebase Admin SDK", zap.Error(err))
	}

	firestoreClient := db.GetFirestoreClient()
	if firestoreClient == nil {
		zapLogger.Fatal("Firestore client is nil after initialization")
	}
	if db.GetFirebaseAuthClient() == nil {
		zapLogger.Fatal("Firebase Auth client is nil after initialization")
	}

	// Repositories.
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	noteRepo := db.NewFirestoreNoteRepository(firestoreClient)
	versionRepo := db.NewFirestoreVersionRepository(firestoreClient)
	notificationRepo := db.NewFirestoreNotificationRepository(firestoreClient)

	// Optional redis profile cache. The services degrade to direct store
	// lookups without it.
	var profileCache cache.Cache
	if appConfig.RedisAddr != "" {
		profileCache, err = cache.NewRedisCache(initCtx, cache.NewRedisCacheConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err != nil {
			zapLogger.Warn("Redis unavailable, profile cache disabled", zap.Error(err))
			profileCache = nil
		} else {
			zapLogger.Info("Redis profile cache enabled", zap.String("addr", appConfig.RedisAddr))
		}
	}

	// Optional share-invite mailer.
	var inviteMailer core.InviteMailer
	if appConfig.SMTPHost != "" && appConfig.SMTPUsername != "" {
		m, err := mailer.NewSMTPMailer(mailer.Config{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
			Sender:   appConfig.SMTPSender,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("Mailer misconfigured, share-invite mail disabled", zap.Error(err))
		} else {
			inviteMailer = m
		}
	}

	// Websocket hub for notification pushes.
	wsManager := ws.NewManager(zapLogger)
	go wsManager.Run()

	// Services.
	userService := core.NewUserService(userRepo)
	versionService := core.NewVersionService(versionRepo, userRepo, profileCache, zapLogger)
	notificationService := core.NewNotificationService(notificationRepo, userRepo, profileCache, wsManager, zapLogger)
	noteService := core.NewNoteService(noteRepo, versionService, notificationService, zapLogger)
	sharingService := core.NewSharingService(noteRepo, userRepo, notificationService, inviteMailer, profileCache, zapLogger)

	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	api.SetupRoutes(
		router,
		zapLogger,
		wsManager,
		userService,
		noteService,
		versionService,
		sharingService,
		notificationService,
	)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server",
		zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	firestoreClient.Close()
	zapLogger.Info("Server exiting gracefully")
}
