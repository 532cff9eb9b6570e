package main

import (
	"context"
	"time"

	"todoapi/internal/adapter/database/mongodb"
	"todoapi/internal/adapter/database/mongodb/repository"
	"todoapi/internal/core/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create the todo collection indexes and exit",
	Args:  cobra.NoArgs,
	RunE:  runEnsureIndexes,
}

func init() {
	rootCmd.AddCommand(ensureIndexesCmd)
}

func runEnsureIndexes(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	db, err := mongodb.NewDB(ctx, mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		Collection:     cfg.Mongo.Collection,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	repo := repository.NewTodoRepository(db.Todos(), telemetry.NewNoOpMetrics(), log.Zap())

	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Error("Failed to ensure indexes", zap.Error(err))
		return err
	}

	log.Info("Indexes ensured", zap.String("collection", cfg.Mongo.Collection))
	return nil
}
