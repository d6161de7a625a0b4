package main

import (
	"fmt"
	"food_delivery/internal/pkg/config"
	"food_delivery/pkg/logger"
	"os"

	"github.com/spf13/cobra"
)

var envFlag string

var rootCmd = &cobra.Command{
	Use:   "deliveryctl",
	Short: "Operational commands for the food delivery backend",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(envFlag, false)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", envOrDefault("APP_ENV", "dev"), "configuration environment (dev, test, prod)")
	rootCmd.AddCommand(reconcileCmd, replayCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFlag)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		return nil, fmt.Errorf("database configuration is incomplete")
	}
	return &cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
