package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/config"
	"github.com/tomaszsb/code2026-sub000/internal/data"
	"github.com/tomaszsb/code2026-sub000/internal/game"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
	"github.com/tomaszsb/code2026-sub000/internal/logging"
	"github.com/tomaszsb/code2026-sub000/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting board server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := loadData(ctx, cfg.Data, logger)
	if err != nil {
		logger.Fatal("failed to load game data", zap.Error(err))
	}
	if !source.Loaded() {
		logger.Warn("no game data found; spaces will have no effects",
			zap.String("source", cfg.Data.Source),
		)
	}

	manager := game.NewManager(source, logger,
		game.WithSeed(cfg.Game.Seed),
		game.WithDefaultSettings(state.Settings{
			MaxPlayers:    cfg.Game.MaxPlayers,
			WinCondition:  cfg.Game.WinCondition,
			Debug:         cfg.Game.Debug,
			StartingSpace: cfg.Game.StartingSpace,
		}),
	)
	logger.Info("game manager initialized")

	orchestrator := game.NewOrchestrator(manager, logger, game.OrchestratorConfig{
		NegotiationPenaltyDays: cfg.Game.NegotiationPenaltyDays,
		Roller:                 game.NewRoller(cfg.Game.Seed),
	})
	defer orchestrator.Close()

	recorder := game.NewReplayRecorder(manager, logger, cfg.Game.ReplayDir)
	defer recorder.Close()

	hub := server.NewHub(manager.Bus(), orchestrator, manager, logger, cfg.Server.AllowedOrigins)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := orchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("orchestrator error", zap.Error(err))
		}
	}()
	go hub.Run(ctx)

	go func() {
		logger.Info("starting websocket server", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server error", zap.Error(err))
			stop()
		}
	}()

	logger.Info("board server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
		zap.String("data_source", cfg.Data.Source),
		zap.Int("max_players", cfg.Game.MaxPlayers),
	)

	<-ctx.Done()
	logger.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}

	if recorder.Replay() != nil {
		if _, err := recorder.Save(); err != nil {
			logger.Error("failed to save replay", zap.Error(err))
		}
	}

	logger.Info("board server stopped")
}

// loadData reads the board tables once from the configured source.
func loadData(ctx context.Context, cfg config.DataConfig, logger *zap.Logger) (*data.Database, error) {
	if cfg.Source != config.SourcePostgres {
		db, err := data.LoadDir(cfg.Dir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded game data from csv", zap.String("dir", cfg.Dir))
		return db, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	db, err := data.LoadPostgres(ctx, pool, logger)
	if err != nil {
		return nil, err
	}
	stats := pool.Stat()
	logger.Info("loaded game data from postgres",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)
	return db, nil
}
