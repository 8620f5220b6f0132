package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/logging"
	"newsletter-go/internal/models"
	"newsletter-go/internal/repository"
)

type SubscriptionService struct {
	repo   repository.SubscriptionRepository
	logger *logging.ContextLogger
	tracer trace.Tracer
}

func NewSubscriptionService(repo repository.SubscriptionRepository, logger *logging.ContextLogger) *SubscriptionService {
	return &SubscriptionService{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("subscription-service"),
	}
}

// Subscribe records a new subscription for name and email, both stored as
// given. Every call creates a new record; duplicates are not detected.
func (s *SubscriptionService) Subscribe(ctx context.Context, name, email string) (*models.Subscription, error) {
	ctx, span := s.tracer.Start(ctx, "subscription.service.subscribe",
		trace.WithAttributes(
			attribute.String("subscriber.email", email),
			attribute.String("subscriber.name", name),
		))
	defer span.End()

	subscription := models.NewSubscription(email, name)

	s.logger.InfoWithTracing(ctx, "Saving new subscriber details in the database", logrus.Fields{
		"subscription_id": subscription.ID.String(),
	})

	if err := s.repo.Insert(ctx, subscription); err != nil {
		s.logger.ErrorWithTracing(ctx, "Failed to execute query", err, logrus.Fields{
			"subscription_id": subscription.ID.String(),
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, err
	}

	s.logger.InfoWithTracing(ctx, "New subscriber details have been saved", logrus.Fields{
		"subscription_id": subscription.ID.String(),
	})

	span.SetAttributes(
		attribute.String("subscription.id", subscription.ID.String()),
		attribute.Bool("success", true),
	)

	return subscription, nil
}
