package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/inspectra/inspectra/internal/detector"
	"github.com/inspectra/inspectra/pkg/logger"
	"github.com/joho/godotenv"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger.Init(envOr("LOG_LEVEL", "info"))

	cfg := detector.Config{
		VLM: detector.VLMConfig{
			Provider: envOr("VLM_PROVIDER", "ollama"),
			Model:    os.Getenv("VLM_MODEL"),
			APIKey:   os.Getenv("VLM_API_KEY"),
			BaseURL:  os.Getenv("VLM_BASE_URL"),
			Prompt:   os.Getenv("VLM_PROMPT"),
		},
		CallbackURL:   envOr("CALLBACK_URL", "http://localhost:8080/api/detection/webhook"),
		WebhookSecret: os.Getenv("DETECTION_WEBHOOK_SECRET"),
	}

	gin.SetMode(envOr("SERVER_MODE", "release"))
	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery())

	srv := detector.NewServer(cfg)
	srv.Routes(r)

	addr := envOr("DETECTOR_HOST", "0.0.0.0") + ":" + envOr("DETECTOR_PORT", "8090")
	logger.Infof("Detector starting on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Failed to start detector: %v", err)
	}
}
