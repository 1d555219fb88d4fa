// Package llm talks to an OpenAI-compatible chat-completions endpoint to
// turn natural language plus a schema projection into a SQL query.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoQuery is returned when the provider answers successfully but the
// completion is empty.
var ErrNoQuery = errors.New("no query generated")

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-3.5-turbo"

	temperature = 0.3
	maxTokens   = 500
)

// Client calls the chat-completions API. Safe for concurrent use.
type Client struct {
	http  *resty.Client
	model string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.http.SetBaseURL(strings.TrimRight(baseURL, "/")) }
}

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// NewClient creates a chat-completions client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(60 * time.Second),
		model: defaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
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

// Complete sends one prompt with the caller's API key and returns the
// trimmed completion text. The text is not parsed or validated here.
func (c *Client) Complete(ctx context.Context, apiKey, prompt string) (string, error) {
	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: temperature,
			MaxTokens:   maxTokens,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("chat completion: %s", out.Error.Message)
		}
		return "", fmt.Errorf("chat completion: %s", resp.Status())
	}

	if len(out.Choices) == 0 {
		return "", ErrNoQuery
	}
	query := strings.TrimSpace(out.Choices[0].Message.Content)
	if query == "" {
		return "", ErrNoQuery
	}
	return query, nil
}
