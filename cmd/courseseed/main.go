// cmd/courseseed loads the sample course catalog into the configured
// database. It reads the same COURSEPORTAL_* settings as the server.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/dalemusser/courseportal/internal/app/bootstrap"
	"github.com/dalemusser/courseportal/internal/app/seed"
	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coreCfg, appCfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		return err
	}
	if err := bootstrap.ValidateConfig(coreCfg, appCfg, logger); err != nil {
		return err
	}

	deps, err := bootstrap.ConnectDB(ctx, coreCfg, appCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := bootstrap.Shutdown(context.Background(), coreCfg, appCfg, deps, logger); err != nil {
			logger.Warn("disconnect failed", zap.Error(err))
		}
	}()

	if err := bootstrap.EnsureSchema(ctx, coreCfg, appCfg, deps, logger); err != nil {
		return err
	}

	res, err := seed.Courses(ctx, coursestore.New(deps.MongoDatabase), logger)
	logger.Info("sample catalog loaded",
		zap.String("database", appCfg.MongoDatabase),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped))
	return err
}
