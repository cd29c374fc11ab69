package application

import "context"

// SendOptions controls rendering of an outbound message.
type SendOptions struct {
	// HTML asks the transport to render the text with HTML parse mode, so
	// the model can emphasize headings with <b></b> tags.
	HTML bool
}

// Messenger is the narrow outbound surface of the messaging transport.
// Send returns an opaque message id usable with Edit and Delete.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// MediaFetcher resolves a transport file reference into its raw bytes.
type MediaFetcher interface {
	Fetch(ctx context.Context, fileRef string) ([]byte, error)
}
