package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"studyhub/contract"
	"studyhub/infrastructure/bus"
	"studyhub/infrastructure/httpapi"
	"studyhub/internal"
	"studyhub/observability"
	"studyhub/repositories"
	"studyhub/runtime"
	"studyhub/runtime/workers"
	"studyhub/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories
	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()
	roomRepository, err := repositories.NewRoomRepository(db, log)
	if err != nil {
		return fmt.Errorf("room repository: %w", err)
	}
	defer func() { _ = roomRepository.Close() }()
	receiptRepository := repositories.NewReceiptRepository(db, log)
	memberRepository := repositories.NewMemberRepository(db, log)
	userRepository := repositories.NewUserRepository(db, log)

	// 4. Bus: shared redis when configured, in-process loopback otherwise
	var publisher contract.IPublisher
	var frames <-chan contract.BusFrame
	var busWorkers []contract.Worker
	if config.RedisAddr != "" {
		redisBus, err := bus.NewRedisBus(log, config.RedisAddr, config.InboundBufferSize)
		if err != nil {
			return fmt.Errorf("redis bus: %w", err)
		}
		defer func() { _ = redisBus.Close() }()
		if err := redisBus.Ping(5 * time.Second); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}
		publisher = redisBus
		frames = redisBus.Frames()
		busWorkers = append(busWorkers, redisBus)
	} else {
		memoryBus := bus.NewMemoryBus(log, config.InboundBufferSize)
		defer func() { _ = memoryBus.Close() }()
		publisher = memoryBus
		frames = memoryBus.Frames()
	}

	// 5. Runtime: registry, broadcaster, listener, supervision
	registry := runtime.NewRegistry(log, config.ConnectionBufferSize)
	broadcaster := workers.NewBroadcaster(log, publisher, config.OutboundBufferSize)
	listener := workers.NewBusListener(log, registry, memberRepository, frames)
	health := workers.NewHealthMonitorWorker(log, config.MetricInterval)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(broadcaster, listener, health)
	sup.Add(busWorkers...)

	// 6. Services & HTTP surface
	chatService := services.NewChatService(log,
		messageRepository, receiptRepository, memberRepository,
		roomRepository, userRepository, broadcaster)
	notificationService := services.NewNotificationService(log, registry)
	handler := httpapi.NewHandler(log, chatService, notificationService, registry, config.IdleTimeout)

	// 7. Optional store inspector with live stats
	if config.DebugPort > 0 {
		monitor := observability.NewMonitor()
		monitor.RegisterGauge("ActiveStreams", registry.ActiveStreams)
		internal.StartDebugServer(db, config.DebugPort, "/inspect", nil, monitor.Snapshot)
		log.Info("Store inspector started", "port", config.DebugPort)
	}

	// 8. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 9. Start the workers and the HTTP server
	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: handler.Router(),
	}

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 10. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 11. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", "error", err)
	}
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}
