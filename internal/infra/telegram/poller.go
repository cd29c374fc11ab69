package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"interview-bot/internal/application"
	"interview-bot/internal/infra"
)

// Handler receives classified inbound events.
type Handler interface {
	HandleAudio(ctx context.Context, msg application.AudioMessage)
	HandleText(ctx context.Context, msg application.TextMessage)
	HandleCommand(ctx context.Context, cmd application.Command)
	HandleUnsupported(ctx context.Context, msg application.UnsupportedMessage)
}

// Poller long-polls the Bot API and dispatches each update to the handler.
// Updates are dispatched in order, so texts queued before an audio upload
// keep their arrival order.
type Poller struct {
	client  *Client
	handler Handler
	timeout int
	retry   infra.RetryConfig
	logger  *slog.Logger
}

func NewPoller(client *Client, handler Handler, timeout int, logger *slog.Logger) *Poller {
	if timeout <= 0 {
		timeout = 30
	}
	return &Poller{
		client:  client,
		handler: handler,
		timeout: timeout,
		retry:   infra.PollRetryConfig(),
		logger:  logger,
	}
}

func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("polling for updates", "timeout", p.timeout)

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := p.fetch(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("fetching updates", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			p.dispatch(ctx, update)
		}
	}
}

func (p *Poller) fetch(ctx context.Context, offset int64) ([]Update, error) {
	var updates []Update
	err := infra.WithRetry(ctx, p.retry, func() error {
		var err error
		updates, err = p.client.GetUpdates(ctx, offset, p.timeout)

		// A bad token or malformed request will not heal on retry.
		var apiErr *APIError
		if errors.As(err, &apiErr) && !infra.IsRetryableHTTPStatus(apiErr.HTTPStatus) {
			return infra.Permanent(err)
		}
		return err
	})
	return updates, err
}

func (p *Poller) dispatch(ctx context.Context, update Update) {
	m := update.Message
	if m == nil {
		return
	}

	switch {
	case strings.HasPrefix(m.Text, "/"):
		p.handler.HandleCommand(ctx, application.Command{
			ChatID: m.Chat.ID,
			Name:   commandName(m.Text),
		})
	case m.Audio != nil:
		p.handler.HandleAudio(ctx, application.AudioMessage{
			ChatID:  m.Chat.ID,
			FileRef: m.Audio.FileID,
			MIME:    m.Audio.MIMEType,
			Caption: m.Caption,
		})
	case m.Voice != nil:
		mime := m.Voice.MIMEType
		if mime == "" {
			mime = "audio/ogg"
		}
		p.handler.HandleAudio(ctx, application.AudioMessage{
			ChatID:  m.Chat.ID,
			FileRef: m.Voice.FileID,
			MIME:    mime,
			Caption: m.Caption,
		})
	case m.Text != "":
		p.handler.HandleText(ctx, application.TextMessage{
			ChatID: m.Chat.ID,
			Text:   m.Text,
		})
	case len(m.Photo) > 0:
		p.handler.HandleUnsupported(ctx, application.UnsupportedMessage{ChatID: m.Chat.ID, Kind: "photo"})
	case m.Video != nil:
		p.handler.HandleUnsupported(ctx, application.UnsupportedMessage{ChatID: m.Chat.ID, Kind: "video"})
	case m.Document != nil:
		p.handler.HandleUnsupported(ctx, application.UnsupportedMessage{ChatID: m.Chat.ID, Kind: "document"})
	case m.Sticker != nil:
		p.handler.HandleUnsupported(ctx, application.UnsupportedMessage{ChatID: m.Chat.ID, Kind: "sticker"})
	}
}

// commandName extracts the bare command from "/cmd@botname args".
func commandName(text string) string {
	token := strings.Fields(text)[0]
	token = strings.TrimPrefix(token, "/")
	if at := strings.Index(token, "@"); at >= 0 {
		token = token[:at]
	}
	return token
}
