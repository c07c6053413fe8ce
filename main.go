package main

import (
	stdlog "log"

	"github.com/joho/godotenv"

	"github.com/jescuti/deepplant/cmd"
	"github.com/jescuti/deepplant/internal/config"
	"github.com/jescuti/deepplant/internal/logger"
)

func main() {
	// Load environment variables; a missing .env file is fine.
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		if lerr := logger.Setup(logger.DefaultConfig()); lerr != nil {
			stdlog.Fatalf("Failed to initialize logger: %v", lerr)
		}
		logger.WithComponent("main").Fatal().Err(err).Msg("invalid configuration")
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute(cfg)
}
