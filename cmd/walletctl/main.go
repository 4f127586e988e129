package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	baseURL string
	timeout time.Duration
	token   string
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "walletctl",
		Short:         "Wallet ledger operator tool",
		Long:          `A command line interface for running migrations and operator actions against the wallet ledger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("WALLET_API_URL", "http://localhost:8080"), "Base URL of the wallet API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("WALLET_API_TOKEN"), "Admin bearer token; without it X-User-* headers are sent")

	rootCmd.AddCommand(
		migrateCmd(),
		consistencyCmd(opts),
		reconcileCmd(opts),
		freezeCmd(opts, true),
		freezeCmd(opts, false),
		tokenCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
