package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"interview-bot/internal/domain"
)

const defaultChatModel = "gpt-4o-mini"

// ChatClient calls the OpenAI chat completions endpoint with the full
// role-tagged dialogue on every call.
type ChatClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewChatClient(apiKey, model string) *ChatClient {
	return NewChatClientWithURL(apiKey, model, "https://api.openai.com/v1")
}

func NewChatClientWithURL(apiKey, model, baseURL string) *ChatClient {
	if model == "" {
		model = defaultChatModel
	}
	return &ChatClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *ChatClient) Reply(ctx context.Context, dialogue []domain.Turn) (string, error) {
	messages := make([]chatMessage, 0, len(dialogue))
	for _, turn := range dialogue {
		messages = append(messages, chatMessage{Role: string(turn.Role), Content: turn.Content})
	}

	bodyBytes, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", &domain.ChatError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &domain.ChatError{Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.ChatError{Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &domain.ChatError{Err: fmt.Errorf("chat API error %d: %s", resp.StatusCode, string(respBody))}
	}

	var result chatResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.ChatError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(result.Choices) == 0 {
		return "", &domain.ChatError{Err: fmt.Errorf("empty response from model")}
	}

	return result.Choices[0].Message.Content, nil
}
