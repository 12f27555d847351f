package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lumen-edu/lumen-api/internal/config"
	"github.com/lumen-edu/lumen-api/internal/database"
	"github.com/lumen-edu/lumen-api/internal/events"
	"github.com/lumen-edu/lumen-api/internal/handler"
	"github.com/lumen-edu/lumen-api/internal/middleware"
	"github.com/lumen-edu/lumen-api/internal/models"
	"github.com/lumen-edu/lumen-api/internal/observability"
	"github.com/lumen-edu/lumen-api/internal/repository"
	"github.com/lumen-edu/lumen-api/internal/router"
	"github.com/lumen-edu/lumen-api/internal/service"
	cloud "github.com/lumen-edu/lumen-api/pkg/cloudinary"
	"github.com/lumen-edu/lumen-api/pkg/playground"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.CodeTask{},
		&models.PollTask{},
		&models.PollOption{},
		&models.TextInputTask{},
		&models.TheoryTask{},
		&models.CodeSubmission{},
		&models.PollSubmission{},
		&models.TextInputSubmission{},
		&models.Attachment{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	publisher := events.Publisher(events.NopPublisher{})
	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
		publisher = events.NewNATSPublisher(natsConn, cfg.NATSSubject, logger)
	}

	playgrounds, err := playground.NewDockerFactory(playground.Config{
		Host:          cfg.DockerHost,
		Image:         cfg.PlaygroundImage,
		WorkspaceRoot: cfg.PlaygroundWorkdir,
		MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
		CPUShares:     int64(cfg.CodeRunCPUShares),
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("failed to create playground factory: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	txManager := repository.NewTxManager(db)

	gradingService := service.NewGradingService(taskRepo, submissionRepo, txManager, playgrounds, publisher, validate, logger)
	courseService := service.NewCourseService(courseRepo, validate, logger)
	taskService := service.NewTaskService(taskRepo, courseRepo, logger)
	historyService := service.NewHistoryService(taskRepo, submissionRepo, logger)

	gradingHandler := handler.NewGradingHandler(gradingService, logger)
	courseHandler := handler.NewCourseHandler(courseService, logger)
	taskHandler := handler.NewTaskHandler(taskService, historyService, logger)

	var attachmentHandler *handler.AttachmentHandler
	if cfg.CloudinaryCloudName != "" {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		attachmentService := service.NewAttachmentService(store, attachmentRepo, courseRepo, cfg.UploadMaxSizeMB, logger)
		attachmentHandler = handler.NewAttachmentHandler(attachmentService, logger)
	} else {
		logger.Warn().Msg("cloudinary credentials missing, attachment endpoints disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	app.Get("/metrics", observability.MetricsHandler())

	router.Register(app, cfg, router.Dependencies{
		CourseHandler:     courseHandler,
		TaskHandler:       taskHandler,
		GradingHandler:    gradingHandler,
		AttachmentHandler: attachmentHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
