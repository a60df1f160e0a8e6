package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crawlpulse/datafilters/pkg/server"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the data filters server",
	Long: `Run the HTTP API that serves field catalogs, operators, presets, live
previews and export requests, together with the metrics and health endpoints.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	cfg, err := server.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// the config file wins unless --log-level was given explicitly
	if !cmd.Flags().Changed("log-level") {
		level, err := logrus.ParseLevel(cfg.LoggingLevel)
		if err != nil {
			return fmt.Errorf("invalid logging level %q: %w", cfg.LoggingLevel, err)
		}
		logger.SetLevel(level)
	}

	srv, err := server.NewServer(cmd.Context(), logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(cmd.Context())
}
