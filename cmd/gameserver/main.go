// Package main provides the game server binary: a websocket endpoint for
// real-time duels plus a level generation API and optional static client
// serving.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/room"
	"github.com/cory-johannsen/skirmish/internal/game/stage"
	"github.com/cory-johannsen/skirmish/internal/gateway"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/server"
	"github.com/cory-johannsen/skirmish/internal/transport/ws"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (empty uses built-in defaults)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("addr", cfg.Server.Addr()),
	)

	selected, err := selectStage(cfg.Game)
	if err != nil {
		logger.Fatal("loading stage", zap.Error(err))
	}
	logger.Info("stage selected",
		zap.String("stage", selected.Name),
	)

	registry := room.NewRegistry(room.Settings{
		Stage:          selected,
		StartingHealth: cfg.Game.StartingHealth,
		AttackReach:    cfg.Game.AttackReach,
		AttackDamage:   cfg.Game.AttackDamage,
	})
	gw := gateway.New(logger, registry)
	wsServer := ws.NewServer(cfg.Server, cfg.Level, gw, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("websocket", wsServer)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}

	logger.Info("game server exited",
		zap.Duration("uptime", time.Since(start)),
	)
}

// selectStage resolves the configured stage: a named stage from the stage
// directory when one is configured, the built-in stage otherwise.
func selectStage(cfg config.GameConfig) (stage.Stage, error) {
	if cfg.StageDir == "" {
		return stage.Default(), nil
	}

	stages, err := stage.LoadFromDir(cfg.StageDir)
	if err != nil {
		return stage.Stage{}, err
	}
	if cfg.Stage == "" {
		return stage.Default(), nil
	}

	s, ok := stages[cfg.Stage]
	if !ok {
		return stage.Stage{}, fmt.Errorf("stage %q not found in %s", cfg.Stage, cfg.StageDir)
	}
	return s, nil
}
