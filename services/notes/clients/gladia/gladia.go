package gladia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/voxnote/backend/services/notes/entity"
)

const defaultBaseURL = "https://api.gladia.io"

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

type transcriptionResponse struct {
	Transcription string `json:"transcription"`
}

func New(apiKey, baseURL string) *Client {
	log := slog.Default()
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	log.Debug("creating gladia client",
		slog.String("base_url", baseURL),
		slog.Bool("api_key_set", apiKey != ""))
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		log:        log,
	}
}

// Transcribe uploads raw audio and returns the transcription text. An empty
// transcript field in an otherwise successful response fails with
// entity.ErrEmptyTranscript.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	c.log.Info("Transcribe called", slog.String("filename", filename))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	url := c.baseURL + "/v2/transcription"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.log.Debug("sending request to gladia API", slog.String("url", url))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("HTTP request failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.log.Error("gladia API returned error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(respBody)))
		return "", fmt.Errorf("transcription API failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Error("failed to decode response", slog.String("error", err.Error()))
		return "", fmt.Errorf("decode transcription response: %w", err)
	}

	text := strings.TrimSpace(result.Transcription)
	if text == "" {
		c.log.Warn("gladia returned empty transcription", slog.String("filename", filename))
		return "", entity.ErrEmptyTranscript
	}

	c.log.Info("transcription retrieved successfully",
		slog.String("filename", filename),
		slog.Int("text_length", len(text)))

	return text, nil
}
