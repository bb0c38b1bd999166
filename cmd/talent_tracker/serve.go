package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/activity"
	"github.com/andres/talent-tracker/internal/application"
	"github.com/andres/talent-tracker/internal/config"
	"github.com/andres/talent-tracker/internal/db"
	"github.com/andres/talent-tracker/internal/llm"
	"github.com/andres/talent-tracker/internal/logger"
	"github.com/andres/talent-tracker/internal/outbox"
	"github.com/andres/talent-tracker/internal/server"
	"github.com/andres/talent-tracker/internal/sourcing"
	"github.com/andres/talent-tracker/internal/tracking"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start the HTTP server together with the campaign scheduler and the outbox dispatcher.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	// AI scoring is optional: without an API key every campaign falls
	// back to the deterministic scorer.
	var aiClient llm.Client
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("failed to create AI client: %w", err)
		}
		defer func() { _ = gemini.Close() }()
		aiClient = gemini
	} else {
		log.Warn("GEMINI_API_KEY not set, campaign scoring uses the deterministic fallback only")
	}

	tracker := tracking.New(database, log, cfg.PublicBaseURL, cfg.TrackingTTL())

	queue := outbox.New(database, log, cfg.OutboxPoll, cfg.OutboxMaxAttempts)
	apps := application.New(database, tracker, queue, log)
	application.RegisterOutboxHandlers(queue, database, tracker)

	var sources []sourcing.Source
	for _, src := range cfg.Sources {
		sources = append(sources, sourcing.NewBoardSource(src.Name, src.BaseURL))
	}
	scorer := sourcing.NewScorer(aiClient, log)
	campaigns := sourcing.NewManager(database, sources, scorer, log)
	scheduler := sourcing.NewScheduler(database, campaigns, log, cfg.SchedulerPoll)

	activityLog := activity.New(database, log)

	go queue.Start(ctx)
	go scheduler.Start(ctx)

	srv := server.New(server.Deps{
		Store:         database,
		Applications:  apps,
		Tracker:       tracker,
		Campaigns:     campaigns,
		Activity:      activityLog,
		Logger:        log,
		RatePerSecond: cfg.RateLimitPerSecond,
		RateBurst:     cfg.RateLimitBurst,
	})

	log.Info("talent tracker starting",
		zap.Int("port", cfg.Port),
		zap.Int("sources", len(sources)),
		zap.Bool("ai_scoring", aiClient != nil))

	return srv.Start(cfg.Port)
}
