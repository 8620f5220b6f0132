package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/config"
	"newsletter-go/internal/models"
)

const pingTimeout = 5 * time.Second

const insertSubscription = `
	INSERT INTO subscriptions (id, email, name, subscribed_at)
	VALUES (:id, :email, :name, :subscribed_at)`

// Connect opens a Postgres pool for settings and verifies it answers.
func Connect(ctx context.Context, settings config.DatabaseSettings) (*sqlx.DB, error) {
	return ConnectDSN(ctx, settings.ConnectionString(), settings)
}

// ConnectDSN is Connect with an explicit connection string, used when the
// target database differs from settings.DatabaseName.
func ConnectDSN(ctx context.Context, dsn config.Secret, settings config.DatabaseSettings) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn.Expose())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}

	db.SetMaxOpenConns(settings.MaxOpenConns)
	db.SetMaxIdleConns(settings.MaxIdleConns)
	db.SetConnMaxLifetime(settings.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres at %s:%d: %w", settings.Host, settings.Port, err)
	}

	return db, nil
}

type PostgresSubscriptionRepository struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

func NewPostgresSubscriptionRepository(db *sqlx.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{
		db:     db,
		tracer: otel.Tracer("postgres.repository"),
	}
}

func (r *PostgresSubscriptionRepository) Insert(ctx context.Context, subscription *models.Subscription) error {
	ctx, span := r.tracer.Start(ctx, "subscription.repository.insert",
		trace.WithAttributes(
			attribute.String("subscription.id", subscription.ID.String()),
			attribute.String("operation", "database.write"),
			attribute.String("db.system", "postgresql"),
			attribute.String("db.sql.table", "subscriptions"),
		))
	defer span.End()

	if _, err := r.db.NamedExecContext(ctx, insertSubscription, subscription); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to insert subscription: %w", err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return nil
}
