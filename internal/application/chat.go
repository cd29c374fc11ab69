package application

import (
	"context"

	"interview-bot/internal/domain"
)

// ChatModel answers a query given the full ordered dialogue. The model is
// stateless across calls, so the entire history is resent every time.
type ChatModel interface {
	Reply(ctx context.Context, dialogue []domain.Turn) (string, error)
}
