package telegram

import "encoding/json"

// Bot API payloads, limited to the fields the bot reads.

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageID int         `json:"message_id"`
	Chat      Chat        `json:"chat"`
	Text      string      `json:"text"`
	Caption   string      `json:"caption"`
	Audio     *Audio      `json:"audio"`
	Voice     *Voice      `json:"voice"`
	Document  *Document   `json:"document"`
	Photo     []PhotoSize `json:"photo"`
	Video     *Video      `json:"video"`
	Sticker   *Sticker    `json:"sticker"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Audio struct {
	FileID   string `json:"file_id"`
	MIMEType string `json:"mime_type"`
}

// Voice notes are recorded by the Telegram client itself and arrive as
// Ogg/Opus; mime_type may be absent.
type Voice struct {
	FileID   string `json:"file_id"`
	MIMEType string `json:"mime_type"`
}

type Document struct {
	FileID   string `json:"file_id"`
	MIMEType string `json:"mime_type"`
}

type PhotoSize struct {
	FileID string `json:"file_id"`
}

type Video struct {
	FileID string `json:"file_id"`
}

type Sticker struct {
	FileID string `json:"file_id"`
}

type File struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
}
