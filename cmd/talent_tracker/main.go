// Package main provides the entry point for the talent tracker API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "talent_tracker",
	Short: "Recruiting and applicant-tracking API server",
	Long:  "Talent Tracker manages vacancies, applications with deterministic match scoring, token-gated tracking links and scheduled candidate-sourcing campaigns via REST API.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (optional)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
