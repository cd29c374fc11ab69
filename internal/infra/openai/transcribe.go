package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"interview-bot/internal/domain"
)

const defaultTranscribeModel = "gpt-4o-mini-transcribe"

// transcribePrompt fixes the rendering convention for turn-taking: the
// service is asked to label alternating interviewer and applicant lines.
const transcribePrompt = "The following conversation is a US embassy interview between a US embassy officer " +
	"and an applicant.\n\n" +
	"Return like this following this format:\n\n" +
	"Output:\n" +
	"Interviewer: <response>\n" +
	"Applicant: <response>\n" +
	"Interviewer: <response>\n" +
	"Applicant: <response>\n" +
	"..."

// TranscriptionClient calls the OpenAI audio transcription endpoint.
type TranscriptionClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	language   string
}

func NewTranscriptionClient(apiKey, model, language string) *TranscriptionClient {
	return NewTranscriptionClientWithURL(apiKey, model, language, "https://api.openai.com/v1")
}

func NewTranscriptionClientWithURL(apiKey, model, language, baseURL string) *TranscriptionClient {
	if model == "" {
		model = defaultTranscribeModel
	}
	return &TranscriptionClient{
		apiKey: apiKey,
		// Transcribing a long interview is slow, allow well over a minute.
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    baseURL,
		model:      model,
		language:   language,
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *TranscriptionClient) Transcribe(ctx context.Context, audio []byte, format domain.AudioFormat) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio"+format.Extension())
	if err != nil {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("creating form file: %w", err)}
	}

	if _, err = part.Write(audio); err != nil {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("writing audio: %w", err)}
	}

	if err = writer.WriteField("model", c.model); err != nil {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("writing model field: %w", err)}
	}

	if err = writer.WriteField("prompt", transcribePrompt); err != nil {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("writing prompt field: %w", err)}
	}

	if c.language != "" {
		if err = writer.WriteField("language", c.language); err != nil {
			return "", &domain.TranscriptionError{Err: fmt.Errorf("writing language field: %w", err)}
		}
	}

	if err = writer.Close(); err != nil {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("closing writer: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &domain.TranscriptionError{Err: fmt.Errorf("transcription API error %d: %s", resp.StatusCode, string(respBody))}
	}

	var result transcriptionResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.TranscriptionError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	return result.Text, nil
}
