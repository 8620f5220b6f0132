package repository

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/models"
)

// SubscriptionRepository is the persistence handle shared by every request.
// Implementations must be safe for concurrent use.
type SubscriptionRepository interface {
	Insert(ctx context.Context, subscription *models.Subscription) error
}

// InMemorySubscriptionRepository backs the "memory" driver and the HTTP tests.
type InMemorySubscriptionRepository struct {
	mu            sync.RWMutex
	subscriptions []models.Subscription
	tracer        trace.Tracer
}

func NewInMemorySubscriptionRepository() *InMemorySubscriptionRepository {
	return &InMemorySubscriptionRepository{
		tracer: otel.Tracer("memory.repository"),
	}
}

func (r *InMemorySubscriptionRepository) Insert(ctx context.Context, subscription *models.Subscription) error {
	_, span := r.tracer.Start(ctx, "subscription.repository.insert",
		trace.WithAttributes(
			attribute.String("subscription.id", subscription.ID.String()),
			attribute.String("operation", "database.write"),
			attribute.String("db.system", "memory"),
		))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.subscriptions {
		if existing.ID == subscription.ID {
			err := fmt.Errorf("subscription with ID %s already exists", subscription.ID)
			span.RecordError(err)
			return err
		}
	}

	r.subscriptions = append(r.subscriptions, *subscription)
	span.SetAttributes(attribute.Bool("success", true))
	return nil
}

// All returns a copy of every stored subscription in insertion order.
func (r *InMemorySubscriptionRepository) All() []models.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Subscription, len(r.subscriptions))
	copy(result, r.subscriptions)
	return result
}
