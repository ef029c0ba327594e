package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"board-chat/directory"
	"board-chat/domain"
	"board-chat/domain/event"
	"board-chat/infrastructure/web"
	"board-chat/moderation"
	"board-chat/observability"
	"board-chat/projection"
	"board-chat/repositories"
	"board-chat/runtime"
	"board-chat/runtime/workers"
	"board-chat/search"
	"board-chat/services"
	"board-chat/sink"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Keeping the logic out of main ensures
// every defer (database close, index close) fires before exit.
func run() error {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Message store. In-memory Badger: history lives exactly as long
	// as the process, which is the intended lifetime.
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("store opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing message store...")
		_ = db.Close()
	}()

	// 3. Shared registries
	catalog := domain.DefaultCatalog()
	dir := directory.NewDirectory(log)
	bans := moderation.NewBanList()
	limiter := moderation.NewRateLimiter(config.RateWindow, config.RateLimit)
	trigger, err := moderation.NewTrigger(strings.Split(config.TriggerWords, ","))
	if err != nil {
		return fmt.Errorf("trigger build failed: %w", err)
	}
	messages := repositories.NewMessageRepository(db, log, config.BoardCapacity)
	reactions := repositories.NewReactionAggregator(log, dir)
	presence := runtime.NewRegistry()
	monitor := observability.NewMonitor(log)

	// The moderator is a regular identity registered at boot; its
	// sequential id is what the command engine trusts.
	var moderatorID string
	if config.ModeratorName != "" {
		moderator := dir.Register(config.ModeratorName)
		moderatorID = moderator.ID
		log.Info("Moderator registered", "id", moderatorID, "name", moderator.DisplayName)
	}

	// 4. Coordinator + telemetry pipeline
	telemetry := make(chan event.DomainEvent, config.TelemetryBuffer)
	coordinator := runtime.NewCoordinator(
		log, catalog, dir, bans, limiter, trigger,
		messages, reactions, presence, monitor, telemetry, moderatorID,
	)

	index, err := search.NewIndex(log)
	if err != nil {
		return fmt.Errorf("search index failed: %w", err)
	}
	defer func() { _ = index.Close() }()

	langs := sink.NewLanguageStats()
	activity := projection.NewActivity(config.ActivityFeed)

	supervisor := workers.NewSupervisor(log)
	supervisor.Add(workers.NewTelemetryFanout(log, telemetry, langs, activity, index))

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go supervisor.Run(ctx)

	// 6. HTTP surface
	svc := services.NewChatService(log, catalog, dir, coordinator, messages, index)
	handler := web.NewHandler(log, svc, monitor, langs, activity)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: handler.Routes()}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "address", address)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Graceful shutdown failed", "err", err)
		}
		supervisor.Stop()
	}
	return nil
}
