// Command catalyst serves the volatility catalyst dashboard and prints
// one-off score reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/okian/catalyst/internal/config"
	"github.com/okian/catalyst/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running it without a subcommand serves.
func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "catalyst",
		Short:         "Volatility catalyst score for trading days",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				if err := os.Setenv(config.EnvConfigFile, path); err != nil {
					return err
				}
			}
			var err error
			cfg, err = config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}
			// stdout belongs to report output
			if err := logger.Init(
				logger.WithFormat(cfg.LogFormat),
				logger.WithLevel(cfg.LogLevel),
				logger.WithOutput(cmd.ErrOrStderr()),
			); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().String("config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP dashboard and API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "report [YYYY-MM-DD]",
			Short: "Print the score report for a date (default today)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return report(cmd.Context(), cfg, args, cmd.OutOrStdout())
			},
		},
	)
	return root
}
