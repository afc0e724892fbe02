package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"terranova/app/config"
	"terranova/internal/infrastructure/planapi"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "terranova",
		Short:         "Sustainable city planner: request plans, render maps, share links",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "HCL config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(planCmd(&configPath))
	rootCmd.AddCommand(shareCmd())
	rootCmd.AddCommand(restoreCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(out *os.File) *slog.Logger {
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// resolveBaseURL prefers an explicit base URL, then derives one from the
// public origin, then falls back to the local backend.
func resolveBaseURL(cfg *config.Config, logger *slog.Logger) string {
	if cfg.Planner.BaseURL != "" {
		return cfg.Planner.BaseURL
	}
	if cfg.Planner.PublicOrigin != "" {
		u, err := planapi.ResolveBaseURL(cfg.Planner.PublicOrigin, cfg.Planner.ExternalBackend)
		if err == nil {
			return u
		}
		logger.Warn("cannot derive planner url from public origin", "origin", cfg.Planner.PublicOrigin, "err", err)
	}
	return planapi.LoopbackBaseURL
}
