package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/lumen-edu/lumen-api/internal/bot"
	"github.com/lumen-edu/lumen-api/internal/config"
	"github.com/lumen-edu/lumen-api/internal/database"
	"github.com/lumen-edu/lumen-api/internal/events"
	"github.com/lumen-edu/lumen-api/internal/repository"
	"github.com/lumen-edu/lumen-api/internal/service"
	"github.com/lumen-edu/lumen-api/pkg/playground"
	"github.com/lumen-edu/lumen-api/pkg/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.TelegramToken == "" {
		log.Fatal("telegram token must be provided")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

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
	userRepo := repository.NewUserRepository(db)
	txManager := repository.NewTxManager(db)

	gradingService := service.NewGradingService(taskRepo, submissionRepo, txManager, playgrounds, publisher, validate, logger)
	courseService := service.NewCourseService(courseRepo, validate, logger)
	taskService := service.NewTaskService(taskRepo, courseRepo, logger)
	userService := service.NewUserService(userRepo, logger)

	client := telegram.NewClient(telegram.Config{
		Token:         cfg.TelegramToken,
		RetryAttempts: 3,
		Logger:        logger,
	})

	sessions := bot.NewRedisSessionStore(redisClient, cfg.BotSessionTTL)
	handler := bot.NewHandler(client, sessions, userService, courseService, taskService, gradingService, logger)
	runner := bot.New(client, handler, cfg.TelegramPollTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		log.Fatalf("bot stopped with error: %v", err)
	}

	log.Println("bot stopped")
}
