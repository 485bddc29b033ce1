package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lucid-vigil/decoynet/pkg/config"
	"github.com/lucid-vigil/decoynet/pkg/enrich"
	"github.com/lucid-vigil/decoynet/pkg/logger"
	"github.com/lucid-vigil/decoynet/pkg/store"
)

func newEnrichCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Resolve captured source IPs to locations and refresh the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(*configPath)
		},
	}
}

func runEnrich(configPath string) error {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	logger.InitLogger(cfg.LogLevel)

	st, err := store.NewFileStore(cfg.DataDir, log.Logger)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.DataDir).Msg("Failed to open event store")
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := enrich.NewFetcher(cfg.Enrich.APIBaseURL, cfg.Enrich.Delay, log.Logger)
	m, err := fetcher.Refresh(ctx, st, cfg.Enrich.CachePath)
	if err != nil {
		log.Error().Err(err).Msg("Enrichment refresh failed")
		return err
	}
	log.Info().Int("ips", len(m)).Msg("Enrichment refresh complete")
	return nil
}
