package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/logging"
	"newsletter-go/internal/models"
	"newsletter-go/internal/service"
)

type SubscriptionHandler struct {
	service *service.SubscriptionService
	logger  *logging.ContextLogger
	tracer  trace.Tracer
}

func NewSubscriptionHandler(service *service.SubscriptionService, logger *logging.ContextLogger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		logger:  logger,
		tracer:  otel.Tracer("subscription-handler"),
	}
}

// Subscribe handles POST /subscriptions. Responses never carry a body: 400 when
// name or email is absent from the form, 500 when the insert fails, 200 otherwise.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "subscription.handler.subscribe")
	defer span.End()

	var form models.SubscribeForm
	if err := c.ShouldBindWith(&form, binding.FormPost); err != nil {
		err = fmt.Errorf("%w: %v", models.ErrInvalidSubmission, err)
		h.logger.WarnWithTracing(ctx, "Rejected subscription form", logrus.Fields{
			"error":    err.Error(),
			"endpoint": "POST /subscriptions",
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid form")
		c.Status(http.StatusBadRequest)
		return
	}

	h.logger.InfoWithTracing(ctx, "Adding a new subscriber", logrus.Fields{
		"subscriber_email": *form.Email,
		"subscriber_name":  *form.Name,
		"endpoint":         "POST /subscriptions",
	})

	subscription, err := h.service.Subscribe(ctx, *form.Name, *form.Email)
	if err != nil {
		// the cause is already logged by the service and stays server-side
		span.RecordError(err)
		span.SetStatus(codes.Error, "subscribe failed")
		c.Status(http.StatusInternalServerError)
		return
	}

	span.SetAttributes(
		attribute.String("subscription.id", subscription.ID.String()),
		attribute.Bool("success", true),
	)

	c.Status(http.StatusOK)
}
