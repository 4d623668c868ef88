// Package main is the entry point for the rp-needle CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Aisuko/rp-needle/internal/config"
	"github.com/Aisuko/rp-needle/internal/provider"

	// Provider modules register themselves at init time.
	_ "github.com/Aisuko/rp-needle/modules/provider/anthropic"
	_ "github.com/Aisuko/rp-needle/modules/provider/cohere"
	_ "github.com/Aisuko/rp-needle/modules/provider/openai"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// API keys commonly live in a .env next to the sweep config.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rp-needle",
		Short:         "Needle-in-a-haystack retrieval sweeps for long-context models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), runCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and registered providers",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("rp-needle %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Println("\nRegistered providers:")
			for _, name := range provider.Names() {
				fmt.Printf("  %s\n", name)
			}
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate a sweep configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Printf("Configuration OK (provider %s, model %s)\n", cfg.Provider.Name, cfg.Provider.Model)
			return nil
		},
	})
	return cmd
}
