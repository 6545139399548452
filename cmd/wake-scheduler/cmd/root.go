package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/wake-scheduler/internal/config"
	"github.com/oshokin/wake-scheduler/internal/service/scheduler"
	"github.com/oshokin/wake-scheduler/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// definitionsFile path where alarm definitions are persisted.
	definitionsFile string

	// rootCmd represents the base command for running the scheduling daemon.
	rootCmd = &cobra.Command{
		Use:   "wake-scheduler [listen-address]",
		Short: "Run the alarm scheduling and wake orchestration daemon.",
		Long: `Starts the daemon that turns alarm definitions into scheduled events and
keeps them reconciled against the notification facility.

The daemon listens on the specified address or uses settings from the
configuration file. Listen address can be provided as argument to override
config (e.g., :9090, 0.0.0.0:8543). Alarm definitions are persisted to a
JSON file, or to Redis when a Redis address is configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &scheduler.Options{
				ConfigPath:      configPath,
				ListenAddress:   listenAddress,
				DefinitionsFile: definitionsFile,
			}

			return scheduler.Run(ctx, options)
		},
	}
)

// Execute runs the wake-scheduler CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&definitionsFile, "definitions-file", "s", config.DefaultDefinitionsFilename, "path to persist alarm definitions")
}
