package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/chainfly/tenderapi/config"
	"github.com/chainfly/tenderapi/internal/api/handlers"
	"github.com/chainfly/tenderapi/internal/api/middleware"
	"github.com/chainfly/tenderapi/internal/api/routes"
	"github.com/chainfly/tenderapi/internal/cache"
	"github.com/chainfly/tenderapi/internal/logger"
	"github.com/chainfly/tenderapi/internal/models"
	"github.com/chainfly/tenderapi/internal/providers/mailer"
	mongorepo "github.com/chainfly/tenderapi/internal/repositories/mongo"
	pgrepo "github.com/chainfly/tenderapi/internal/repositories/postgres"
	"github.com/chainfly/tenderapi/internal/scheduler"
	"github.com/chainfly/tenderapi/internal/services"
	"github.com/chainfly/tenderapi/internal/storage"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	// PostgreSQL holds reminders and history; it is required.
	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init failed")
	}
	if err := config.PostgresDB.AutoMigrate(
		&models.Reminder{},
		&models.ReminderHistory{},
		&models.DownloadHistory{},
	); err != nil {
		log.WithError(err).Fatal("PostgreSQL migration failed")
	}
	log.Info("PostgreSQL connected")

	// MongoDB holds file metadata and GridFS content; without it the app
	// runs degraded: uploads go to the filesystem, listings are down.
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Warn("MongoDB unavailable; file uploads will use the filesystem only")
	} else {
		log.Info("MongoDB connected")
		if err := config.EnsureMongoIndexes(); err != nil {
			log.WithError(err).Warn("failed to ensure MongoDB indexes")
		}
	}

	// Redis backs the list caches; optional.
	var listCache cache.Cache = cache.Noop{}
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("Redis unavailable; list caching disabled")
	} else {
		log.Info("Redis connected")
		listCache = cache.NewRedisCache(config.RedisClient)
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	fsStore, err := storage.NewFilesystemStore(uploadDir)
	if err != nil {
		log.WithError(err).Fatal("uploads directory init failed")
	}

	var gridfsStore storage.BlobStore
	if db := config.MongoDatabase(); db != nil {
		gs, err := storage.NewGridFSStore(db)
		if err != nil {
			log.WithError(err).Warn("GridFS init failed; content store disabled")
		} else {
			gridfsStore = gs
		}
	}

	notifier, err := mailer.NewSMTPNotifierFromEnv()
	if err != nil {
		log.WithError(err).Fatal("SMTP notifier init failed")
	}

	registry := scheduler.NewTimerRegistry()
	defer registry.Stop()

	clock := scheduler.RealClock()

	fileRepo := mongorepo.NewFileRepo(config.MongoDatabase())
	reminderRepo := pgrepo.NewReminderRepo(config.PostgresDB)
	reminderHistoryRepo := pgrepo.NewReminderHistoryRepo(config.PostgresDB)
	downloadHistoryRepo := pgrepo.NewDownloadHistoryRepo(config.PostgresDB)

	reminderSvc := services.NewReminderService(reminderRepo, registry, notifier, clock, listCache, log)
	documentSvc := services.NewDocumentService(fileRepo, fsStore, gridfsStore, clock, listCache, log)
	historySvc := services.NewHistoryService(reminderHistoryRepo, downloadHistoryRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())

	routes.RegisterRoutes(r, routes.Deps{
		Reminder: handlers.NewReminderHandler(reminderSvc, historySvc),
		Document: handlers.NewDocumentHandler(documentSvc, historySvc),
		Tender:   handlers.NewTenderHandler(),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.WithField("port", port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
}
