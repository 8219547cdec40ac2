// Package config handles environment variable loading for ports, database strings, etc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// Worker tick interval between due-schedule polls
	WorkerTickInterval time.Duration

	// Maximum number of due schedules processed per tick
	WorkerBatchSize int

	// URL of the controller API (e.g., "http://localhost:6161")
	ControllerURL string

	// OTLP collector endpoint for tracing
	OTELEndpoint string

	// AI provider settings
	AIBaseURL    string
	AIAPIKey     string
	AITextModel  string
	AIImageModel string

	// CMS (artifact store) settings
	CMSBaseURL string
	CMSToken   string

	// Stock photo provider settings
	StockPhotoBaseURL string
	StockPhotoKey     string

	// Site identity injected into prompt variables
	SiteName        string
	SiteDescription string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	portStr := os.Getenv("PORT")
	port := 6161 // Default
	if portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		port = p
	}

	tickStr := os.Getenv("WORKER_TICK_INTERVAL")
	tick := 1 * time.Minute // Default
	if tickStr != "" {
		d, err := time.ParseDuration(tickStr)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_TICK_INTERVAL: %w", err)
		}
		tick = d
	}

	batchStr := os.Getenv("WORKER_BATCH_SIZE")
	batch := 5 // Default
	if batchStr != "" {
		b, err := strconv.Atoi(batchStr)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_BATCH_SIZE: %w", err)
		}
		batch = b
	}

	controllerURL := os.Getenv("CONTROLLER_URL")
	if controllerURL == "" {
		controllerURL = "http://localhost:6161"
	}

	aiBaseURL := os.Getenv("AI_BASE_URL")
	if aiBaseURL == "" {
		aiBaseURL = "https://api.openai.com/v1"
	}

	textModel := os.Getenv("AI_TEXT_MODEL")
	if textModel == "" {
		textModel = "gpt-4o-mini"
	}

	imageModel := os.Getenv("AI_IMAGE_MODEL")
	if imageModel == "" {
		imageModel = "gpt-image-1"
	}

	return &Config{
		DatabaseURL:        dbURL,
		HTTPPort:           port,
		WorkerTickInterval: tick,
		WorkerBatchSize:    batch,
		ControllerURL:      controllerURL,
		OTELEndpoint:       os.Getenv("OTEL_ENDPOINT"),
		AIBaseURL:          aiBaseURL,
		AIAPIKey:           os.Getenv("AI_API_KEY"),
		AITextModel:        textModel,
		AIImageModel:       imageModel,
		CMSBaseURL:         os.Getenv("CMS_BASE_URL"),
		CMSToken:           os.Getenv("CMS_TOKEN"),
		StockPhotoBaseURL:  os.Getenv("STOCK_PHOTO_BASE_URL"),
		StockPhotoKey:      os.Getenv("STOCK_PHOTO_KEY"),
		SiteName:           os.Getenv("SITE_NAME"),
		SiteDescription:    os.Getenv("SITE_DESCRIPTION"),
	}, nil
}
