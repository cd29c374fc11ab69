package application

import (
	"context"

	"interview-bot/internal/domain"
)

// SessionStore is the externally owned keyed session storage. Get creates a
// fresh session on first access; mutations only become durable through Put.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (*domain.Session, error)
	Put(ctx context.Context, sess *domain.Session) error
}
