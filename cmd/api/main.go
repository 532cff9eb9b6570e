package main

import (
	"fmt"
	"os"

	"todoapi/pkg/config"
	"todoapi/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "todoapi",
	Short:        "Todo CRUD API backed by MongoDB",
	SilenceUsage: true,
}

var envFiles []string

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before the environment (default .env)")
}

// setup loads configuration and builds the root logger shared by every command.
func setup() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return config.Config{}, nil, err
	}

	log, err := logger.New(cfg.App.Name, cfg.App.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, log, nil
}
