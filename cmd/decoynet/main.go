package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "decoynet",
		Short:         "Multi-protocol credential-capture sensor",
		Long:          "decoynet exposes fake SSH, FTP, Telnet and web login endpoints, records every credential guess and visit, and summarizes the haul.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: ./config.yaml, /etc/decoynet/config.yaml)")

	root.AddCommand(
		newServeCommand(&configPath),
		newReportCommand(&configPath),
		newEnrichCommand(&configPath),
	)
	return root
}
