package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lucid-vigil/decoynet/pkg/api"
	"github.com/lucid-vigil/decoynet/pkg/config"
	"github.com/lucid-vigil/decoynet/pkg/honeypot"
	"github.com/lucid-vigil/decoynet/pkg/honeypot/ftppot"
	"github.com/lucid-vigil/decoynet/pkg/honeypot/sshpot"
	"github.com/lucid-vigil/decoynet/pkg/honeypot/telnetpot"
	"github.com/lucid-vigil/decoynet/pkg/honeypot/webpot"
	"github.com/lucid-vigil/decoynet/pkg/logger"
	"github.com/lucid-vigil/decoynet/pkg/store"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the honeypot sensors until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	logger.InitLogger(cfg.LogLevel)

	log.Info().Msg("decoynet sensor starting...")

	st, err := store.NewFileStore(cfg.DataDir, log.Logger)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.DataDir).Msg("Failed to open event store")
		return err
	}
	defer st.Close()

	hostKey, err := sshpot.LoadOrGenerateHostKey(cfg.SSH.HostKeyPath, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prepare SSH host key")
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Msgf("Received signal: %s. Shutting down gracefully...", sig)
		cancel()
	}()

	// Live settings (log level) follow the file; listener ports are
	// bound once and a restart is needed to move them.
	loader.Watch(log.Logger, func(next *config.Config) {
		logger.InitLogger(next.LogLevel)
		log.Info().Str("log_level", next.LogLevel).Msg("Configuration reloaded")
	})

	fleet := honeypot.NewFleet(log.Logger)
	fleet.Register(honeypot.NewListener(
		cfg.SSH.Listen,
		sshpot.New(st, hostKey, cfg.SSH.HandshakeTimeout, cfg.SSH.ChannelWindow, log.Logger),
		cfg.SSH.MaxSessions, log.Logger))
	fleet.Register(honeypot.NewListener(
		cfg.FTP.Listen,
		ftppot.New(st, cfg.FTP.IdleTimeout, log.Logger),
		cfg.FTP.MaxSessions, log.Logger))
	fleet.Register(honeypot.NewListener(
		cfg.Telnet.Listen,
		telnetpot.New(st, cfg.Telnet.IdleTimeout, log.Logger),
		cfg.Telnet.MaxSessions, log.Logger))
	fleet.Register(webpot.New(cfg.Web.Listen, st, log.Logger))

	if err := fleet.Start(ctx); err != nil {
		return err
	}

	admin := api.NewServer(cfg.AdminPort, log.Logger)
	if err := admin.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Admin API failed to start")
		fleet.Shutdown(cfg.GracePeriod)
		return err
	}

	<-ctx.Done()

	fleet.Shutdown(cfg.GracePeriod)
	admin.Shutdown(cfg.GracePeriod)
	log.Info().Msg("decoynet sensor stopped.")
	return nil
}
