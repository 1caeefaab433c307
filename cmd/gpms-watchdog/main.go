// Command gpms-watchdog runs a watchdog engine
// behind an HTTP API, with an optional sqlite event journal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/gordian-engine/gpms/gwstore/gwsqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "GPMS"

func main() {
	if err := mainE(); err != nil {
		os.Exit(1)
	}
}

func mainE() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	root := NewRootCmd(logger)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Info("Failure", "err", err)
		os.Stderr.Sync()
		return err
	}

	return nil
}

func NewRootCmd(log *slog.Logger) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use: "gpms-watchdog SUBCOMMAND",

		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},

		Long: `gpms-watchdog runs an inactivity watchdog engine.

Watchdogs are created, reset, queried and deleted over HTTP.
Every transition is recorded in an event journal,
kept in memory or in a sqlite database.

Flags may also be set through GPMS_* environment variables
(for example GPMS_HTTP_ADDR) or a configuration file given with --config.
`,

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			if path == "" {
				return nil
			}

			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file %q: %w", path, err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a configuration file (any format supported by viper)")

	rootCmd.AddCommand(
		newRunCmd(log, v),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use: "version",

		Short: "Print build information",

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			version := "(unknown)"
			if bi, ok := debug.ReadBuildInfo(); ok {
				version = bi.Main.Version
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gpms-watchdog %s\n", version)
			fmt.Fprintf(out, "go: %s\n", runtime.Version())
			fmt.Fprintf(out, "sqlite: %s\n", gwsqlite.BuildType())
			fmt.Fprintf(out, "assertions: %s\n", assertBuildType)
			return nil
		},
	}
}
