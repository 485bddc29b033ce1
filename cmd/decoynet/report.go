package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lucid-vigil/decoynet/pkg/analysis"
	"github.com/lucid-vigil/decoynet/pkg/config"
	"github.com/lucid-vigil/decoynet/pkg/enrich"
	"github.com/lucid-vigil/decoynet/pkg/event"
	"github.com/lucid-vigil/decoynet/pkg/logger"
	"github.com/lucid-vigil/decoynet/pkg/store"
)

func newReportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Analyze the captured events and print ranked summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(*configPath)
		},
	}
}

func runReport(configPath string) error {
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

	// An entirely missing stream reads as zero events, never an error.
	auth, err := st.ReadAll(event.StreamAuthAttempts)
	if err != nil {
		return err
	}
	web, err := st.ReadAll(event.StreamWebVisits)
	if err != nil {
		return err
	}
	ftp, err := st.ReadAll(event.StreamFTPCommands)
	if err != nil {
		return err
	}

	geo, err := enrich.LoadMap(cfg.Enrich.CachePath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Enrich.CachePath).Msg("Enrichment cache unreadable, reporting without locations")
		geo = enrich.Map{}
	}

	report := analysis.Analyze(auth, web, ftp, geo)
	report.Render(os.Stdout)
	return nil
}
