package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"interview-bot/internal/application"
)

// APIError is a Bot API rejection. It carries the HTTP status so callers can
// tell transient failures from permanent ones like a bad token.
type APIError struct {
	Method      string
	HTTPStatus  int
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Method, e.Code, e.Description)
}

// Client is a minimal Telegram Bot API client covering what the bot needs:
// sending, editing and deleting messages, long polling, and file download.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(token string) *Client {
	return NewClientWithURL(token, "https://api.telegram.org")
}

func NewClientWithURL(token, baseURL string) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		// Long polls hold the connection open for up to the poll timeout,
		// so the client timeout must comfortably exceed it.
		httpClient: &http.Client{Timeout: 70 * time.Second},
	}
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", method, err)
	}

	if !api.OK {
		return nil, &APIError{
			Method:      method,
			HTTPStatus:  resp.StatusCode,
			Code:        api.ErrorCode,
			Description: api.Description,
		}
	}

	return api.Result, nil
}

// Send delivers a text message and returns its message id.
func (c *Client) Send(ctx context.Context, chatID int64, text string, opts application.SendOptions) (int, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	if opts.HTML {
		params.Set("parse_mode", "HTML")
	}

	result, err := c.call(ctx, "sendMessage", params)
	if err != nil {
		return 0, err
	}

	var msg Message
	if err := json.Unmarshal(result, &msg); err != nil {
		return 0, fmt.Errorf("decoding sent message: %w", err)
	}

	return msg.MessageID, nil
}

// Edit replaces the text of a previously sent message.
func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("message_id", strconv.Itoa(messageID))
	params.Set("text", text)

	_, err := c.call(ctx, "editMessageText", params)
	return err
}

// Delete removes a previously sent message.
func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("message_id", strconv.Itoa(messageID))

	_, err := c.call(ctx, "deleteMessage", params)
	return err
}

// GetUpdates long-polls for new updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeout))

	result, err := c.call(ctx, "getUpdates", params)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("decoding updates: %w", err)
	}

	return updates, nil
}

// Fetch resolves a file id via getFile and downloads its content.
func (c *Client) Fetch(ctx context.Context, fileRef string) ([]byte, error) {
	params := url.Values{}
	params.Set("file_id", fileRef)

	result, err := c.call(ctx, "getFile", params)
	if err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(result, &file); err != nil {
		return nil, fmt.Errorf("decoding file info: %w", err)
	}

	downloadURL := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, file.FilePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return data, nil
}
