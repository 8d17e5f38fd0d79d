// Command fast-server runs the FAST aggregation server (§4, §6): the
// authoritative Clock, Flag Store, Ingestion API, Submission Scheduler,
// Recovery/Sync, Search, and HTTP surface.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/lcalzada-xor/fast/internal/adapters/storage"
	"github.com/lcalzada-xor/fast/internal/adapters/submitter"
	"github.com/lcalzada-xor/fast/internal/adapters/web"
	"github.com/lcalzada-xor/fast/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/fast/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/fast/internal/config"
	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/services/clock"
	"github.com/lcalzada-xor/fast/internal/core/services/eventbus"
	"github.com/lcalzada-xor/fast/internal/core/services/ingestion"
	"github.com/lcalzada-xor/fast/internal/core/services/recovery"
	"github.com/lcalzada-xor/fast/internal/core/services/search"
	"github.com/lcalzada-xor/fast/internal/core/services/submission"
	"github.com/lcalzada-xor/fast/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configPath := flag.String("config", "server.yaml", "path to server.yaml")
	recoveryPath := flag.String("recovery", ".fast/recover.json", "path to the game_start recovery file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("FAST server starting")
	telemetry.InitMetrics()
	shutdownTracer, err := telemetry.InitTracer("fast-server")
	if err != nil {
		logger.Error("init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		logger.Error("load server.yaml", "error", err)
		os.Exit(1)
	}

	flagStore, err := storage.NewFlagStore(cfg.Database.Path)
	if err != nil {
		logger.Error("open flag store", "error", err)
		os.Exit(1)
	}
	webhookStore := storage.NewWebhookStore(flagStore)
	recoveryFile, err := storage.NewRecoveryFile(*recoveryPath)
	if err != nil {
		logger.Error("open recovery file", "error", err)
		os.Exit(1)
	}

	recoveryService := recovery.New(recoveryFile)
	configured, hasConfigured, err := cfg.Game.StartTime()
	if err != nil {
		logger.Error("parse game.start", "error", err)
		os.Exit(1)
	}
	gameStart, err := recoveryService.ResolveGameStart(ctx, configured, hasConfigured)
	if err != nil {
		logger.Error("resolve game_start", "error", err)
		os.Exit(1)
	}
	logger.Info("game_start resolved", "at", gameStart)

	flagFormat, err := regexp.Compile(cfg.Game.FlagFormat)
	if err != nil {
		logger.Error("compile flag_format", "error", err)
		os.Exit(1)
	}

	bus := eventbus.New()
	tickDuration := time.Duration(cfg.Game.TickDuration * float64(time.Second))

	tickClock := clock.NewServerClock(gameStart, tickDuration, func(tick int64) {
		bus.Publish(domain.Event{
			Kind:      domain.EventTickStart,
			Timestamp: time.Now(),
			Payload:   domain.TickStartPayload{Tick: tick},
		})
	})

	ingestionSvc := ingestion.New(flagStore, bus, tickClock, cfg.Game.TeamIP, flagFormat)
	searchSvc := search.New(flagStore)

	shellSubmitter := submitter.New(cfg.Submitter.Module)
	scheduler := submission.New(flagStore, bus, shellSubmitter, logger)

	h := &handlers.Handlers{
		Config:    cfg,
		Flags:     flagStore,
		Webhooks:  webhookStore,
		Ingestion: ingestionSvc,
		Scheduler: scheduler,
		Search:    searchSvc,
		Recovery:  recoveryService,
		Clock:     tickClock,
		Submitter: shellSubmitter,
		Logger:    logger,
		StartTick: tickClock.CurrentTick(),
		GameStart: gameStart,
	}

	wsManager := websocket.New(bus, logger)
	server := web.NewServer(cfg.Addr(), h, wsManager, cfg.Server.Password, logger)

	go tickClock.Run(ctx)
	if cfg.Submitter.IsDelayMode() {
		delay := time.Duration(cfg.Submitter.Delay * float64(time.Second))
		go scheduler.RunDelayMode(ctx, tickClock, delay)
	} else {
		interval := time.Duration(cfg.Submitter.Interval * float64(time.Second))
		go scheduler.RunIntervalMode(ctx, tickClock, gameStart, interval)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	logger.Info("FAST server started", "addr", cfg.Addr())
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("fatal server error", "error", err)
		cancel()
	}

	time.Sleep(500 * time.Millisecond)
	logger.Info("FAST server stopped")
}
