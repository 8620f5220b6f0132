package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSubmission = errors.New("invalid subscription submission")

// Subscription is a persisted subscribe request. Records are written once and
// never updated.
type Subscription struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	SubscribedAt time.Time `json:"subscribed_at" db:"subscribed_at"`
}

// SubscribeForm is the url-encoded body of POST /subscriptions. Pointer fields
// let "required" distinguish an absent key from an empty value; values are
// otherwise taken verbatim.
type SubscribeForm struct {
	Name  *string `form:"name" binding:"required"`
	Email *string `form:"email" binding:"required"`
}

func NewSubscription(email, name string) *Subscription {
	return &Subscription{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		SubscribedAt: time.Now().UTC(),
	}
}
