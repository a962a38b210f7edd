package main

import (
	"chat-relay/infrastructure/http/server"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 5 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component, serves until a signal arrives and flushes state on the way out.
// Deferred cleanups (database close) run before main exits with the returned code.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env file is not an error: the environment may already be set.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Moderation (optional)
	var censor runtime.Censor
	if config.CensoredWordsFile != "" {
		words, err := moderation.LoadWords(config.CensoredWordsFile)
		if err != nil {
			return exitConfig, fmt.Errorf("censored words: %w", err)
		}
		moderator, err := moderation.NewModerator(words, charReplacement, logger)
		if err != nil {
			return exitConfig, fmt.Errorf("moderator: %w", err)
		}
		censor = moderator
		logger.Info("Moderation enabled", "words", len(words))
	}

	// 3. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		url := fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint)
		logger.Info("Debug Badger inspector available", "url", url)
		database.StartDebugServer(db, config.DebugPort, endpoint, RelayMapper)
	}

	// 4. State
	monitoring := observability.NewMonitoringManager()
	persister := runtime.NewPersister(logger, monitoring, config.PersistTimeout)
	hub := runtime.NewHub(
		logger, monitoring, persister,
		repositories.NewDeviceRepository(db),
		repositories.NewGroupRepository(db),
		repositories.NewMessageRepository(db),
		runtime.HubConfig{
			Retention:            config.RetentionWindow,
			BufferSize:           config.BufferSize,
			MaxSessionsPerDevice: config.MaxSessionsPerDevice,
			SendRatePerSecond:    config.SendRatePerSecond,
			SendBurst:            config.SendBurst,
			Censor:               censor,
		},
	)
	if err = hub.Restore(ctx); err != nil {
		return exitRuntime, err
	}

	// 5. Supervision
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		hub,
		workers.NewSweeperWorker(logger, hub, config.SweepInterval),
		workers.NewSnapshotWorker(logger, hub, config.SnapshotInterval),
		workers.NewTelemetryWorker(logger, monitoring, hub, config.MetricInterval),
	)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	relayServer := server.NewRelayServer(
		logger, services.NewRelayService(hub),
		config.ConnectionBufferSize, config.KeepAliveInterval,
	)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           relayServer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// Streams end with the process, so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	// 7. Start
	g.Go(func() error {
		logger.Info("Starting supervisor...")
		sup.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// 8. Wait for Stop or Error
	code := exitOK
	if err = g.Wait(); err != nil {
		code = exitRuntime
	}

	// 9. Final Cleanup (Graceful Shutdown)
	// The hub is stopped: take a last snapshot and let pending writes land before the database closes.
	logger.Info("Flushing state...")
	hub.Flush()
	persister.Wait()
	logger.Info("Program stopped cleanly")

	return code, err
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

// RelayMapper renders relay keys in the debug inspector.
func RelayMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	record := repositories.Describe(key, val)
	row.Type = record.Kind
	row.Detail = fmt.Sprintf("%s %s", record.Owner, record.Detail)
	return row
}
