// Package telegram implements a minimal Bot API client and the per-agent
// chat relay that feeds incoming messages through the query pipeline.
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.telegram.org"

// Update is one long-poll result from getUpdates.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// User is the bot identity returned by getMe.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Client talks to the Telegram Bot API for one bot token.
type Client struct {
	http  *resty.Client
	token string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API host, used in tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.http.SetBaseURL(baseURL) }
}

// NewClient creates a Bot API client for the given token. The HTTP timeout
// leaves headroom over the long-poll window so getUpdates can idle without
// tripping it.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(pollTimeout + 10*time.Second),
		token: token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) call(ctx context.Context, method string, params map[string]string, result interface{}) error {
	var status apiResponse
	req := c.http.R().
		SetContext(ctx).
		SetFormData(params).
		SetError(&status)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(fmt.Sprintf("/bot%s/%s", c.token, method))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if resp.IsError() {
		if status.Description != "" {
			return fmt.Errorf("telegram %s: %s", method, status.Description)
		}
		return fmt.Errorf("telegram %s: %s", method, resp.Status())
	}
	return nil
}

// GetMe verifies the bot token and returns the bot identity.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var out struct {
		Result User `json:"result"`
	}
	if err := c.call(ctx, "getMe", nil, &out); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// pollTimeout is the long-poll window passed to getUpdates.
const pollTimeout = 30 * time.Second

// GetUpdates long-polls for updates after the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	var out struct {
		Result []Update `json:"result"`
	}
	params := map[string]string{
		"offset":  fmt.Sprintf("%d", offset),
		"timeout": fmt.Sprintf("%d", int(pollTimeout.Seconds())),
	}
	if err := c.call(ctx, "getUpdates", params, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// SendMessage sends text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	return c.call(ctx, "sendMessage", map[string]string{
		"chat_id": chatID,
		"text":    text,
	}, nil)
}

// SendTyping shows the typing indicator in a chat.
func (c *Client) SendTyping(ctx context.Context, chatID string) error {
	return c.call(ctx, "sendChatAction", map[string]string{
		"chat_id": chatID,
		"action":  "typing",
	}, nil)
}
