package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"relay-lab/auth"
	"relay-lab/contract"
	"relay-lab/infrastructure/web"
	"relay-lab/infrastructure/ws"
	"relay-lab/internal"
	"relay-lab/moderation"
	"relay-lab/observability"
	"relay-lab/repositories"
	"relay-lab/runtime"
	"relay-lab/runtime/workers"
	"relay-lab/services"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close included)
// executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config validation: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Core: registry, engine, router
	stats := observability.NewStats(logger)
	registry := runtime.NewRegistry()
	mux := http.NewServeMux()

	var delegate contract.Delegate
	if config.DelegateMode == "token" {
		options := badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING)
		db, err := badger.Open(options)
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		secret := []byte(config.TokenSecret)
		accounts := repositories.NewAccountRepository(db)
		accountService := services.NewAccountService(accounts, secret, config.AuthTokenDuration)
		web.NewAccountHandler(logger, accountService).Mount(mux)

		delegate = auth.NewTokenDelegate(logger, secret, registry)
	}

	engine := runtime.NewEngine(registry, delegate)

	routerOpts := []runtime.RouterOption{runtime.WithStats(stats)}
	if config.EnableModeration {
		replacement, err := internal.CharacterRune(config.CharReplacement)
		if err != nil {
			return exitConfig, err
		}
		moderator, err := moderation.NewDefaultModerator(logger, replacement)
		if err != nil {
			return exitRuntime, fmt.Errorf("moderation init failed: %w", err)
		}
		routerOpts = append(routerOpts, runtime.WithPayloadFilter(moderator))
	}
	router := runtime.NewRouter(logger, registry, engine, routerOpts...)

	// 3. Transport & static file wrapper
	wsServer := ws.NewServer(logger, router, stats, config.SendBufferSize, config.WriteTimeout)
	mux.Handle("/ws", wsServer)
	mux.Handle("/", http.FileServer(http.Dir(config.StaticDir)))

	// 4. Supervised workers
	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewListener(logger, "relay", fmt.Sprintf("%s:%d", config.Host, config.Port), mux),
		workers.NewStatsReporter(logger, stats, registry, config.MetricInterval),
	)
	if config.EnableDebug {
		debugHandler := internal.DebugHandler(func() any {
			return stats.Snapshot(registry.Len())
		})
		supervisor.Add(workers.NewListener(logger, "debug",
			fmt.Sprintf("%s:%d", config.Host, config.DebugPort), debugHandler))
		logger.Info("Debug inspector available",
			"url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
	}

	logger.Info("Relay starting",
		"addr", fmt.Sprintf("%s:%d", config.Host, config.Port),
		"delegate", config.DelegateMode,
		"moderation", config.EnableModeration,
	)

	supervisor.Run(ctx)
	return exitOK, nil
}
