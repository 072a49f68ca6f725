// Package llm calls an OpenAI-compatible chat completions endpoint to draft training plans.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
)

var (
	// ErrNotConfigured is returned when no API key is set
	ErrNotConfigured = errors.New("llm: no API key configured")
	// ErrEmptyResponse is returned when the completion has no usable content
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrBadResponse is returned when the reply or its content cannot be decoded
	ErrBadResponse = errors.New("llm: malformed response")
)

// Config configures the chat completions client
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a minimal chat completions client
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New builds a client, filling in defaults for empty fields
func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
	}
}

// Configured reports whether the client has an API key
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Model returns the model name requests are sent with
func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// CompleteJSON sends prompt as a single user message in JSON mode and
// decodes the reply content into out.
func (c *Client) CompleteJSON(ctx context.Context, prompt string, out any) error {
	content, err := c.complete(ctx, chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: decode completion content: %w", ErrBadResponse, err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, body chatRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer res.Body.Close()

	log.WithFields(log.Fields{
		"model":    c.model,
		"status":   res.StatusCode,
		"duration": time.Since(start),
	}).Debug("chat completion")

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return "", fmt.Errorf("read chat error body: %w", err)
		}
		return "", &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	var payload chatResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode chat response: %w", ErrBadResponse, err)
	}
	if len(payload.Choices) == 0 || strings.TrimSpace(payload.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return payload.Choices[0].Message.Content, nil
}

// StatusError is a non-2xx reply from the completions endpoint
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat request status %d: %s", e.StatusCode, e.Body)
}
