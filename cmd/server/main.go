package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	dapr "github.com/dapr/go-sdk/client"
	"go.opentelemetry.io/otel"

	"newsletter-go/internal/app"
	"newsletter-go/internal/config"
	"newsletter-go/internal/logging"
	"newsletter-go/internal/repository"
	"newsletter-go/internal/telemetry"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	logger := logging.Init(logging.Options{
		Name:   settings.Application.Name,
		Level:  settings.Telemetry.LogLevel,
		Format: settings.Telemetry.LogFormat,
		Output: os.Stdout,
	})

	tp, err := telemetry.InitTracing(settings.Application.Name, settings.Application.Version, settings.Telemetry.TraceExporter)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := telemetry.ShutdownTracing(context.Background(), tp); err != nil {
			logger.WithError(err).Error("Error shutting down tracer provider")
		}
	}()

	repo, closeRepo, err := openRepository(context.Background(), settings.Database)
	if err != nil {
		logger.Fatalf("Failed to open %s persistence: %v", settings.Database.Driver, err)
	}
	defer closeRepo()

	listener, err := net.Listen("tcp", settings.Application.Address())
	if err != nil {
		logger.Fatalf("Failed to bind %s: %v", settings.Application.Address(), err)
	}

	application := app.Build(&app.Config{
		ServiceName:    settings.Application.Name,
		ServiceVersion: settings.Application.Version,
		Address:        settings.Application.Address(),
		Logger:         logger,
		TracerProvider: otel.GetTracerProvider(),
		GinMode:        settings.Application.GinMode,
		Repository:     repo,
	})

	go func() {
		if err := application.Serve(listener); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func openRepository(ctx context.Context, settings config.DatabaseSettings) (repository.SubscriptionRepository, func(), error) {
	switch settings.Driver {
	case config.DriverDapr:
		client, err := dapr.NewClient()
		if err != nil {
			return nil, nil, err
		}
		return repository.NewDaprSubscriptionRepository(client, settings.DaprStore), client.Close, nil
	case config.DriverMemory:
		return repository.NewInMemorySubscriptionRepository(), func() {}, nil
	default:
		db, err := repository.Connect(ctx, settings)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresSubscriptionRepository(db), func() { _ = db.Close() }, nil
	}
}
