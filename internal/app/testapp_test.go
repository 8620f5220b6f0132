package app

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"

	"newsletter-go/internal/logging"
	"newsletter-go/internal/repository"
	"newsletter-go/internal/telemetry"
)

const formContentType = "application/x-www-form-urlencoded"

type TestApp struct {
	Address     string
	recorder    *telemetry.SpanRecorder
	tp          *trace.TracerProvider
	application *Application
}

// spawnApp serves a fresh application on a random local port. A nil repo
// uses in-memory storage.
func spawnApp(t *testing.T, repo repository.SubscriptionRepository) *TestApp {
	t.Helper()

	logger := logging.ForTests("test")
	recorder := telemetry.NewSpanRecorder()
	tp := telemetry.NewTestTracerProvider(recorder)
	otel.SetTracerProvider(tp)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to bind random port")

	application := Build(&Config{
		ServiceName:    "test-newsletter",
		ServiceVersion: "0.0.0",
		Logger:         logger,
		TracerProvider: tp,
		GinMode:        gin.TestMode,
		Repository:     repo,
	})

	go func() { _ = application.Serve(listener) }()

	app := &TestApp{
		Address:     "http://" + listener.Addr().String(),
		recorder:    recorder,
		tp:          tp,
		application: application,
	}
	t.Cleanup(app.Close)

	return app
}

func (app *TestApp) Close() {
	_ = app.application.Shutdown(context.Background())
	_ = app.tp.Shutdown(context.Background())
}

func (app *TestApp) PostSubscriptions(t *testing.T, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(app.Address+"/subscriptions", formContentType, strings.NewReader(body))
	require.NoError(t, err, "failed to execute request")
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func (app *TestApp) Get(t *testing.T, path string) *http.Response {
	t.Helper()

	resp, err := http.Get(app.Address + path)
	require.NoError(t, err, "failed to execute request")
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}
