package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andres/talent-tracker/internal/config"
	"github.com/andres/talent-tracker/internal/db"
	"github.com/andres/talent-tracker/internal/llm"
	"github.com/andres/talent-tracker/internal/logger"
	"github.com/andres/talent-tracker/internal/sourcing"
)

var campaignIDFlag string

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Sourcing campaign operations",
}

var campaignRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one sourcing campaign pass and exit",
	RunE:  runCampaignOnce,
}

func init() {
	campaignRunCmd.Flags().StringVar(&campaignIDFlag, "id", "", "Campaign ID to run")
	_ = campaignRunCmd.MarkFlagRequired("id")
	campaignCmd.AddCommand(campaignRunCmd)
	rootCmd.AddCommand(campaignCmd)
}

func runCampaignOnce(_ *cobra.Command, _ []string) error {
	campaignID, err := uuid.Parse(campaignIDFlag)
	if err != nil {
		return fmt.Errorf("invalid campaign ID %q: %w", campaignIDFlag, err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	var aiClient llm.Client
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("failed to create AI client: %w", err)
		}
		defer func() { _ = gemini.Close() }()
		aiClient = gemini
	}

	var sources []sourcing.Source
	for _, src := range cfg.Sources {
		sources = append(sources, sourcing.NewBoardSource(src.Name, src.BaseURL))
	}
	manager := sourcing.NewManager(database, sources, sourcing.NewScorer(aiClient, log), log)

	stats, err := manager.Run(ctx, campaignID)
	if err != nil {
		return err
	}

	fmt.Printf("Campaign %s: found %d, qualified %d, stored %d (%s)\n",
		campaignID, stats.Found, stats.Qualified, stats.Stored, stats.Duration)
	return nil
}
