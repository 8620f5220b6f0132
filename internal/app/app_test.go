package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-go/internal/handlers"
	"newsletter-go/internal/logging"
	"newsletter-go/internal/models"
	"newsletter-go/internal/repository"
)

type failingRepository struct{}

func (failingRepository) Insert(ctx context.Context, subscription *models.Subscription) error {
	return errors.New("pq: password authentication failed for user \"postgres\"")
}

func TestHealthCheckWorks(t *testing.T) {
	app := spawnApp(t, nil)

	for i := 0; i < 2; i++ {
		resp := app.Get(t, "/health_check")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(0), resp.ContentLength)
	}
}

func TestIndexReturnsGreeting(t *testing.T) {
	app := spawnApp(t, nil)

	for i := 0; i < 2; i++ {
		resp := app.Get(t, "/")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, handlers.Greeting, string(body))
	}
}

func TestSubscribeReturns200ForValidFormData(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	app := spawnApp(t, repo)

	resp := app.PostSubscriptions(t, "name=le%20guin&email=ursula_le_guin%40gmail.com")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), resp.ContentLength)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	saved := repo.All()
	require.Len(t, saved, 1)
	assert.Equal(t, "ursula_le_guin@gmail.com", saved[0].Email)
	assert.Equal(t, "le guin", saved[0].Name)
}

func TestSubscribeReturns400WhenDataIsMissing(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	app := spawnApp(t, repo)

	testCases := []struct {
		body        string
		description string
	}{
		{"name=le%20guin", "missing the email"},
		{"email=ursula_le_guin%40gmail.com", "missing the name"},
		{"", "missing both name and email"},
	}

	for _, tc := range testCases {
		resp := app.PostSubscriptions(t, tc.body)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode,
			"the API did not fail with 400 Bad Request when the payload was %s", tc.description)
	}
	assert.Empty(t, repo.All())
}

func TestSubscribeAcceptsEmptyValues(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	app := spawnApp(t, repo)

	resp := app.PostSubscriptions(t, "name=&email=")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	saved := repo.All()
	require.Len(t, saved, 1)
	assert.Equal(t, "", saved[0].Name)
	assert.Equal(t, "", saved[0].Email)
}

func TestSubscribeIsNotIdempotent(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	app := spawnApp(t, repo)

	for i := 0; i < 2; i++ {
		resp := app.PostSubscriptions(t, "name=le%20guin&email=ursula_le_guin%40gmail.com")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	saved := repo.All()
	require.Len(t, saved, 2)
	assert.NotEqual(t, saved[0].ID, saved[1].ID)
}

func TestSubscribeReturns500WhenPersistenceFails(t *testing.T) {
	app := spawnApp(t, failingRepository{})

	resp := app.PostSubscriptions(t, "name=le%20guin&email=ursula_le_guin%40gmail.com")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, body)
}

func TestSubscribeRecordsDatabaseWriteSpan(t *testing.T) {
	app := spawnApp(t, nil)

	resp := app.PostSubscriptions(t, "name=le%20guin&email=ursula_le_guin%40gmail.com")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	writeSpans := app.recorder.SpansByOperation("database.write")
	require.Len(t, writeSpans, 1)

	foundID := false
	for _, attr := range writeSpans[0].Attributes() {
		if attr.Key == "subscription.id" && attr.Value.AsString() != "" {
			foundID = true
		}
	}
	assert.True(t, foundID, "expected subscription.id attribute on the write span")

	assert.Len(t, app.recorder.SpansByName("subscription.handler.subscribe"), 1)
	assert.Len(t, app.recorder.SpansByName("subscription.service.subscribe"), 1)
}

func TestRejectedSubscribeDoesNotTouchDatabase(t *testing.T) {
	app := spawnApp(t, nil)

	resp := app.PostSubscriptions(t, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Empty(t, app.recorder.SpansByOperation("database.write"))
}

func TestRouterServesWithoutListener(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	application := Build(&Config{
		ServiceName: "test-newsletter",
		Logger:      logging.ForTests("test"),
		GinMode:     "test",
		Repository:  repo,
	})
	server := httptest.NewServer(application.Router())
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/subscriptions", formContentType,
		strings.NewReader("name=le%20guin&email=ursula_le_guin%40gmail.com"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, repo.All(), 1)
}
