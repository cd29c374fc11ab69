package application

// AudioMessage is an inbound audio or voice message.
type AudioMessage struct {
	ChatID  int64
	FileRef string
	MIME    string
	Caption string
}

// TextMessage is an inbound freestanding text message.
type TextMessage struct {
	ChatID int64
	Text   string
}

// Command is an inbound bot command with its leading slash stripped.
type Command struct {
	ChatID int64
	Name   string
}

// UnsupportedMessage is inbound media the bot cannot process
// (photo, video, document, sticker).
type UnsupportedMessage struct {
	ChatID int64
	Kind   string
}
