package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wbparse/backend/config"
	"github.com/wbparse/backend/internal/logger"
)

// NewRootCmd creates the root command for wbparse.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wbparse",
		Short: "Collect and reconcile Wildberries catalog listings",
		Long: `wbparse searches the Wildberries catalog, enriches every listing with
stock and price details and the wallet price shown on the rendered search
page, and prints or stores the reconciled products.

Configuration is read from config.yaml, WBPARSE_* environment variables
and a .env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCookiesCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and builds a logger writing to w.
func loadConfig(cmd *cobra.Command, w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	return cfg, logger.New(w, level, cfg.Log.Format), nil
}
