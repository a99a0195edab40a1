package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"account-ledger/internal/config"
)

var configFile string

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "account-ledger",
		Short:         "Account ledger and user management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml or /etc/account-ledger/config.yaml)")

	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the configured logger as the
// slog default.
func loadConfig(out io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cfg, out)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}
