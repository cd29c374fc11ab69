package application

import (
	"context"

	"interview-bot/internal/domain"
)

// Transcriber turns recorded audio into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format domain.AudioFormat) (string, error)
}
