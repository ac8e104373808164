package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/app"
	"github.com/Nazarious-ucu/weather-voice-assistant/internal/config"
	metricsSvc "github.com/Nazarious-ucu/weather-voice-assistant/internal/services/metrics"
	"github.com/Nazarious-ucu/weather-voice-assistant/pkg/logger"
)

const serviceName = "weather_voice_assistant"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Panicf("failed to load configuration: %v", err)
	}

	l, err := logger.NewLogger(cfg.LogsPath, serviceName)
	if err != nil {
		log.Panicf("failed to create logger: %v", err)
	}

	application := app.New(*cfg, l, metricsSvc.NewMetrics(serviceName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		l.Fatal().Err(err).Msg("application failed to run")
	}
}
