// Package main implements the limen binary: the reflection HTTP service
// and maintenance commands for device-local reflections.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/limen-app/limen/internal/config"
	"github.com/limen-app/limen/internal/observability"
)

var (
	// configPath is an optional YAML file; LIMEN_* variables override it.
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "limen",
	Short: "Guided self-reflection service",
	Long: `limen serves the reflection flow over HTTP and manages the
reflections saved on this device.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reflectionsCmd)
}

// loadConfig reads the configuration and sets up the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	observability.Init(observability.LogConfig{Level: cfg.Log.Level, File: cfg.Log.File})
	return cfg, nil
}
