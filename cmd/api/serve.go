package main

import (
	"os"
	"os/signal"
	"syscall"

	api "todoapi/internal/adapter/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on, overrides PORT")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if servePort != "" {
		cfg.HTTP.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := api.StartServer(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return err
	}

	log.Info("Server stopped")
	return nil
}
