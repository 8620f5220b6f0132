package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/handlers"
	"newsletter-go/internal/logging"
	"newsletter-go/internal/repository"
	"newsletter-go/internal/service"
)

const RequestIDHeader = "X-Request-Id"

type Config struct {
	ServiceName    string
	ServiceVersion string
	Address        string
	Logger         *logging.ContextLogger
	TracerProvider trace.TracerProvider
	GinMode        string
	Repository     repository.SubscriptionRepository // nil falls back to in-memory storage
}

type Application struct {
	server *http.Server
	config *Config
	router *gin.Engine
}

func Build(config *Config) *Application {
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}

	var repo repository.SubscriptionRepository
	if config.Repository != nil {
		repo = config.Repository
	} else {
		repo = repository.NewInMemorySubscriptionRepository()
	}

	subscriptionService := service.NewSubscriptionService(repo, config.Logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, config.Logger)

	var otelOpts []otelgin.Option
	if config.TracerProvider != nil {
		otelOpts = append(otelOpts, otelgin.WithTracerProvider(config.TracerProvider))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(config.ServiceName, otelOpts...))
	router.Use(requestID())
	router.Use(requestLogger(config.Logger))

	router.GET("/", handlers.Index)
	router.GET("/health_check", handlers.HealthCheck)
	router.POST("/subscriptions", subscriptionHandler.Subscribe)

	server := &http.Server{
		Addr:              config.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Application{
		server: server,
		config: config,
		router: router,
	}
}

// requestID tags each request with a fresh id, visible in logs, on the span
// and in the response header.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		ctx := logging.ContextWithRequestID(c.Request.Context(), id)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("request_id", id))
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *logging.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.WithTracing(c.Request.Context()).WithFields(map[string]interface{}{
			"method":     method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}).Info("HTTP request completed")
	}
}

// Serve accepts connections on listener until Shutdown is called.
func (app *Application) Serve(listener net.Listener) error {
	app.config.Logger.Info("Starting server on " + listener.Addr().String())
	if err := app.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *Application) Shutdown(ctx context.Context) error {
	app.config.Logger.Info("Shutting down server...")
	return app.server.Shutdown(ctx)
}

// Router exposes the handler chain for serving without a listener.
func (app *Application) Router() *gin.Engine {
	return app.router
}
