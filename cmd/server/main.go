package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dmklda/farmandcity-sub002/internal/catalog"
	"github.com/dmklda/farmandcity-sub002/internal/config"
	"github.com/dmklda/farmandcity-sub002/internal/game"
	"github.com/dmklda/farmandcity-sub002/internal/repository"
	"github.com/dmklda/farmandcity-sub002/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	cardsPath  = flag.String("cards", "", "path to a card catalog JSON file (default: built-in set)")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting farm and city server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cards := catalog.DefaultSet()
	if *cardsPath != "" {
		cards, err = catalog.LoadFile(*cardsPath)
		if err != nil {
			logger.Fatal("failed to load card catalog", zap.Error(err))
		}
	}
	logger.Info("card catalog loaded", zap.Int("cards", cards.Len()))

	var saves server.SaveStore
	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Warn("database unavailable, saves disabled", zap.Error(err))
	} else {
		defer db.Close()
		saves = repository.NewSaveRepository(db, logger)
		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)
	}

	var hub *server.Hub
	engine := game.NewEngine(cfg.Game.Settings(), game.SinkFunc(func(n game.Notice) {
		if hub != nil {
			hub.NoticeSink().Notify(n)
		}
	}), nil, logger)

	handler := server.NewHandler(engine, cards, saves, logger)
	hub = server.NewHub(handler, logger)
	srv := server.New(cfg.Server, hub, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	logger.Info("server initialized", zap.String("address", cfg.Server.Address))

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
