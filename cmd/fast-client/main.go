// Command fast-client runs the FAST player-side agent (§4, §6): syncing to
// the server's Clock, launching exploit sessions on each tick, draining the
// fallback queue, and serving the local command socket.
//
// Invoked with no arguments it runs the tick engine until SIGINT. The
// `fire`, `submit` and `reset` subcommands are one-shot CLI operations
// against an already-running agent or the server itself (§6 "Client CLI").
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/lcalzada-xor/fast/internal/adapters/exploit"
	"github.com/lcalzada-xor/fast/internal/adapters/httpclient"
	"github.com/lcalzada-xor/fast/internal/adapters/listener"
	"github.com/lcalzada-xor/fast/internal/adapters/storage"
	"github.com/lcalzada-xor/fast/internal/config"
	"github.com/lcalzada-xor/fast/internal/core/services/clock"
	"github.com/lcalzada-xor/fast/internal/core/services/fallback"
	"github.com/lcalzada-xor/fast/internal/core/services/runner"
	"github.com/lcalzada-xor/fast/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configPath := flag.String("config", "fast.yaml", "path to fast.yaml")
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		logger.Error("load fast.yaml", "error", err)
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "fire":
		runFire(cfg, flag.Args()[1:])
	case "submit":
		runSubmit(cfg, logger)
	case "reset":
		runReset(cfg, logger)
	default:
		runAgent(cfg, *configPath, logger)
	}
}

// runFire implements `fast fire <name...>`: connect to the local listener
// socket and request immediate execution, bypassing each exploit's delay.
func runFire(cfg *config.ClientConfig, names []string) {
	conn, err := net.Dial("tcp", cfg.ListenerAddr())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fire: connect to listener: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "fire %s\n", strings.Join(names, " "))
	reply, _ := bufio.NewReader(conn).ReadString('\n')
	fmt.Print(reply)
}

// runSubmit implements `fast submit`: ask the server to trigger a
// submission round immediately.
func runSubmit(cfg *config.ClientConfig, logger *slog.Logger) {
	client := httpclient.New(cfg.BaseURL(), cfg.Connect.Player, cfg.Connect.Password)
	if err := client.TriggerSubmit(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "submit: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("submission triggered")
}

// runReset implements `fast reset`: interactively clears the recovery file
// and/or the client fallback database.
func runReset(cfg *config.ClientConfig, logger *slog.Logger) {
	fmt.Print("Clear recovery file? [y/N] ")
	if confirm() {
		if err := os.Remove(".fast/recover.json"); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "reset: remove recovery file: %v\n", err)
		} else {
			fmt.Println("recovery file cleared")
		}
	}

	fmt.Print("Drop local fallback store? [y/N] ")
	if confirm() {
		if err := os.Remove(".fast/fast.db"); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "reset: remove fallback store: %v\n", err)
		} else {
			fmt.Println("fallback store dropped")
		}
	}
}

func confirm() bool {
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func runAgent(cfg *config.ClientConfig, configPath string, logger *slog.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("FAST client starting", "player", cfg.Connect.Player)

	shutdownTracer, err := telemetry.InitTracer("fast-client")
	if err != nil {
		logger.Error("init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	if err := os.MkdirAll(".fast", 0o755); err != nil {
		logger.Error("create .fast directory", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		logger.Error("create logs directory", "error", err)
		os.Exit(1)
	}

	client := httpclient.New(cfg.BaseURL(), cfg.Connect.Player, cfg.Connect.Password)

	sync, err := client.Sync(ctx)
	if err != nil {
		logger.Error("initial sync with server failed", "error", err)
		os.Exit(1)
	}
	tickDuration := time.Duration(sync.Tick.Duration * float64(time.Second))
	remaining := time.Duration(sync.Tick.Remaining * float64(time.Second))

	fallbackStore, err := storage.NewFallbackStore(".fast/fast.db")
	if err != nil {
		logger.Error("open fallback store", "error", err)
		os.Exit(1)
	}

	flagFormatPattern, err := client.GetConfig(ctx)
	if err != nil {
		logger.Error("fetch flag_format from server", "error", err)
		os.Exit(1)
	}
	flagFormat, err := regexp.Compile(flagFormatPattern)
	if err != nil {
		logger.Error("compile server flag_format", "error", err)
		os.Exit(1)
	}

	cache, err := runner.NewDefinitionsCache()
	if err != nil {
		logger.Error("build definitions cache", "error", err)
		os.Exit(1)
	}
	loader := runner.NewDefinitionsLoader(configPath, cache, logger)
	loader.LoadOnce()
	go loader.Watch(ctx)

	fileLogger, err := runner.NewFileLogger("logs")
	if err != nil {
		logger.Error("build file logger", "error", err)
		os.Exit(1)
	}

	shellRunner := exploit.New()
	memos := runner.NewMemoSet()
	drainer := fallback.New(fallbackStore, client, logger)

	launcher := &runner.Launcher{
		Definitions: cache,
		Drain:       drainer,
		NewSession: func() *runner.Session {
			return &runner.Session{
				Runner:     shellRunner,
				Client:     client,
				Fallback:   fallbackStore,
				Memos:      memos,
				Logger:     logger,
				FileLog:    fileLogger,
				Player:     cfg.Connect.Player,
				FlagFormat: flagFormat,
			}
		},
		Logger:     logger,
		TeamHosts:  func() []string { return loadTeamHosts() },
		OwnTeamIPs: map[string]struct{}{},
	}

	cmdSocket := listener.New(cfg.ListenerAddr(), launcher, logger)
	go func() {
		if err := cmdSocket.Run(ctx); err != nil {
			logger.Error("command socket stopped", "error", err)
		}
	}()

	tickClock := clock.NewClientClock(tickDuration, sync.Tick.Current, func(tick int64) {
		launcher.LaunchTick(ctx)
	})

	logger.Info("FAST client started", "tick_duration", tickDuration)
	tickClock.Run(ctx, remaining)
	logger.Info("FAST client stopped")
}

// loadTeamHosts reads the optional .fast/teams.json team directory (§6), a
// flat {team_id: host} map, used by exploit definitions with
// `targets: [auto]`. Its absence is not an error — auto-targeting exploits
// simply resolve to an empty target list.
func loadTeamHosts() []string {
	raw, err := os.ReadFile(".fast/teams.json")
	if err != nil {
		return nil
	}
	var teams map[string]string
	if err := json.Unmarshal(raw, &teams); err != nil {
		slog.Default().Warn("teams.json: invalid, ignoring", "error", err)
		return nil
	}
	hosts := make([]string, 0, len(teams))
	for _, host := range teams {
		hosts = append(hosts, host)
	}
	return hosts
}
