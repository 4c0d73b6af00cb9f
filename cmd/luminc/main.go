// Package main is the entry point for luminc, the Lumin to TypeScript
// compiler and server.
package main

import (
	"os"

	"github.com/lemonberrylabs/lumin/pkg/config"
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "luminc",
		Short:        "Lumin to TypeScript transpiler",
		SilenceUsage: true,
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("luminc version {{.Version}}\n")

	root.PersistentFlags().String("config", "", "Path to lumin.yaml (default ./lumin.yaml if present)")

	root.AddCommand(newBuildCmd(), newTokensCmd(), newServeCmd(), newReplCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the file named by --config, or lumin.yaml in the working
// directory when it exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.Load(path)
	}
	return config.Find(".")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
