package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/commonapp/common-backend/internal/config"
	"github.com/commonapp/common-backend/internal/db"
	"github.com/commonapp/common-backend/internal/geo"
	httpHandlers "github.com/commonapp/common-backend/internal/http/handlers"
	httpRouter "github.com/commonapp/common-backend/internal/http/router"
	"github.com/commonapp/common-backend/internal/logger"
	"github.com/commonapp/common-backend/internal/realtime"
	"github.com/commonapp/common-backend/internal/repository"
	"github.com/commonapp/common-backend/internal/service"
	"github.com/commonapp/common-backend/internal/storage"
	"github.com/commonapp/common-backend/internal/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: config load failed: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: database connection failed: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: migrations failed: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: media storage setup failed: %v", err)
	}

	geocodeClient := geo.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeUserAgent)

	// Repositories.
	userRepo := repository.NewUserRepository(dbConn)
	postRepo := repository.NewPostRepository(dbConn)
	threadRepo := repository.NewThreadRepository(dbConn)
	reportRepo := repository.NewReportRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Realtime plumbing: the hub fans events out per user, the feed
	// carries row inserts into live thread subscriptions.
	hub := ws.NewHub(ctx)
	feed := realtime.NewFeed()

	// Services.
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(notificationRepo)
	emailService := service.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, userRepo)
	profileService := service.NewProfileService(userRepo, cfg.MediaBaseURL)
	postService := service.NewPostService(postRepo)
	threadService := service.NewThreadService(threadRepo, postRepo, hub, emailService)
	threadService.SetChangeStream(feed)
	reportService := service.NewReportService(reportRepo, &service.RepoTargetResolver{
		Posts:   postRepo,
		Threads: threadRepo,
	})
	moderationService := service.NewModerationService(postRepo, reportRepo, userRepo, hub, emailService)

	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	hub.SetThreadStream(feed, threadService, userRepo)
	go hub.Run()

	// HTTP handlers.
	authHandler := httpHandlers.NewAuthHandler(authService)
	profileHandler := httpHandlers.NewProfileHandler(profileService)
	postHandler := httpHandlers.NewPostHandler(postService, profileService)
	threadHandler := httpHandlers.NewThreadHandler(threadService)
	reportHandler := httpHandlers.NewReportHandler(reportService)
	adminHandler := httpHandlers.NewAdminHandler(moderationService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	mediaHandler := httpHandlers.NewMediaHandler(photoStorage, profileService)
	geocodeHandler := httpHandlers.NewGeocodeHandler(geocodeClient)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		profileHandler,
		postHandler,
		threadHandler,
		reportHandler,
		adminHandler,
		notificationHandler,
		mediaHandler,
		geocodeHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown error: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited with error: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: database close error: %v", err)
	}
}
