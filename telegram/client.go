package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.telegram.org"

// maxPollHold caps the getUpdates long-poll hold so the shared poller client
// always outlives the server's hold.
const maxPollHold = 50 * time.Second

// Client talks to the Telegram Bot API: sending messages and long-polling for
// command updates.
type Client struct {
	httpClient *http.Client
	poller     *http.Client
	baseURL    string
	token      string
	log        *zap.Logger
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different API host, for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

func NewClient(token string, timeout time.Duration, log *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		// The poller must outlast the server-side long-poll hold, so it gets
		// a fixed timeout above the largest hold GetUpdates is called with.
		poller:  &http.Client{Timeout: maxPollHold + 10*time.Second},
		baseURL: defaultBaseURL,
		token:   token,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// SendMessage posts an HTML-formatted message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.method("sendMessage"), bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram: read response: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("telegram: parse response: %w", err)
	}
	if !result.Ok {
		return fmt.Errorf("telegram: api error: %s", result.Description)
	}
	return nil
}

// GetUpdates long-polls for updates after offset. pollTimeout is the server
// hold time in seconds, capped at maxPollHold; the shared poller client has a
// timeout above that cap so it is never cut off mid-hold.
func (c *Client) GetUpdates(ctx context.Context, offset int64, pollTimeout int) ([]Update, error) {
	if max := int(maxPollHold / time.Second); pollTimeout > max {
		pollTimeout = max
	}

	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(pollTimeout))
	params.Set("allowed_updates", `["message"]`)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.method("getUpdates")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: create request: %w", err)
	}

	resp, err := c.poller.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: get updates: %w", err)
	}
	defer resp.Body.Close()

	var result updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("telegram: parse updates: %w", err)
	}
	if !result.Ok {
		return nil, fmt.Errorf("telegram: api error: %s", result.Description)
	}
	return result.Result, nil
}

func (c *Client) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, name)
}
