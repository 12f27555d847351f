package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API and bot services.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	NATSSubject string
	JWTSecret   string

	TelegramToken       string
	TelegramPollTimeout time.Duration
	BotSessionTTL       time.Duration

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int

	DockerHost        string
	PlaygroundImage   string
	ExecutionTimeout  time.Duration
	CodeRunMemoryMB   int
	CodeRunCPUShares  int
	PlaygroundWorkdir string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LUMEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Lumen API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "lumen")
	v.SetDefault("telegram.poll_timeout", "50s")
	v.SetDefault("bot.session_ttl", "30m")
	v.SetDefault("cloudinary.folder", "lumen/materials")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("playground.image", "python:3.11-alpine")
	v.SetDefault("execution_timeout_ms", 5000)
	v.SetDefault("code_run_memory_mb", 256)
	v.SetDefault("code_run_cpu_shares", 512)

	pollTimeout, err := time.ParseDuration(v.GetString("telegram.poll_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid telegram poll timeout: %w", err)
	}

	sessionTTL, err := time.ParseDuration(v.GetString("bot.session_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid bot session ttl: %w", err)
	}

	timeoutMs := v.GetInt("execution_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	cfg := Config{
		AppName:     v.GetString("app.name"),
		AppEnv:      v.GetString("app.env"),
		AppPort:     v.GetString("app.port"),
		DatabaseURL: v.GetString("database.url"),
		RedisURL:    v.GetString("redis.url"),
		NATSURL:     v.GetString("nats.url"),
		NATSSubject: v.GetString("nats.subject"),
		JWTSecret:   v.GetString("jwt.secret"),

		TelegramToken:       v.GetString("telegram.token"),
		TelegramPollTimeout: pollTimeout,
		BotSessionTTL:       sessionTTL,

		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),

		DockerHost:        v.GetString("docker_host"),
		PlaygroundImage:   v.GetString("playground.image"),
		ExecutionTimeout:  time.Duration(timeoutMs) * time.Millisecond,
		CodeRunMemoryMB:   v.GetInt("code_run_memory_mb"),
		CodeRunCPUShares:  v.GetInt("code_run_cpu_shares"),
		PlaygroundWorkdir: v.GetString("playground.workdir"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.CodeRunMemoryMB <= 0 {
		cfg.CodeRunMemoryMB = 256
	}

	if cfg.CodeRunCPUShares <= 0 {
		cfg.CodeRunCPUShares = 512
	}

	return cfg, nil
}
