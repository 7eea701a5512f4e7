package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexa-digital/nexus-chat-go/internal/config"
)

// RequestConfig routes a request to the external backend. BackendID must be
// non-empty; callers validate before invoking the service.
type RequestConfig struct {
	BackendID string
	Model     string
}

// Response is the backend reply. On failure Error is set and Content carries
// the user-visible error text, so the transcript stays the single channel
// for both content and error reporting.
type Response struct {
	Content string
	Error   string
}

// Service is the injected language-model backend call.
type Service interface {
	Ask(ctx context.Context, prompt string, cfg RequestConfig) Response
}

// Client implements Service against an OpenAI-compatible chat completions
// endpoint.
type Client struct {
	config     *config.BackendConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a backend client.
func NewClient(cfg *config.BackendConfig, logger *logrus.Logger) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	User        string        `json:"user,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Ask sends the prompt and returns the reply. Failures are folded into the
// Response rather than returned as errors; after the retry budget is spent
// the last error becomes the user-visible content.
func (c *Client) Ask(ctx context.Context, prompt string, cfg RequestConfig) Response {
	var lastErr error

	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		content, err := c.ask(ctx, prompt, cfg, attempt)
		if err == nil {
			return Response{Content: content}
		}

		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"attempt":    attempt,
			"error":      err.Error(),
			"backend_id": cfg.BackendID,
		}).Warn("Backend request failed, retrying...")

		if attempt < c.config.MaxRetries {
			// Exponential backoff: 2s, 4s, 8s
			waitTime := time.Duration(2<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				return errorResponse(lastErr)
			case <-time.After(waitTime):
			}
		}
	}

	return errorResponse(lastErr)
}

func errorResponse(err error) Response {
	msg := "unknown error occurred"
	if err != nil {
		msg = err.Error()
	}
	return Response{
		Content: fmt.Sprintf("Error processing your message: %s", msg),
		Error:   msg,
	}
}

func (c *Client) ask(ctx context.Context, prompt string, cfg RequestConfig, attempt int) (string, error) {
	model := cfg.Model
	if model == "" {
		model = c.config.DefaultModel
	}

	c.logger.WithFields(logrus.Fields{
		"backend_id": cfg.BackendID,
		"model":      model,
		"attempt":    attempt,
	}).Debug("Sending backend request")

	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf("Assistant ID: %s", cfg.BackendID)},
			{Role: "user", Content: prompt},
		},
		User:        cfg.BackendID,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("invalid response format (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("backend error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response generated")
	}

	return parsed.Choices[0].Message.Content, nil
}
