package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"alumni-registry-backend/internal/app"
	"alumni-registry-backend/internal/config"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit ('deliver-notifications', 'repair-intakes', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Alumni Registry Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		switch *runOnce {
		case "deliver-notifications":
			a.Jobs.DeliverNotifications()
		case "repair-intakes":
			a.Jobs.RepairIntakes()
		case "all":
			a.Jobs.RunAll()
		default:
			logger.Error("Unknown job", "job", *runOnce)
			log.Fatalf("Unknown job: %s", *runOnce)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Start scheduler
	sched := scheduler.NewScheduler(a.Jobs)
	sched.Start()

	logger.Info("Cronjob runner started. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info("Shutdown signal received")
	sched.Stop()
	logger.Info("Cronjob runner stopped")
}
