package coc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

const maxAttempts = 3

// Client issues authenticated requests against the Clash of Clans API. It
// knows nothing about caching; the gateway is the only component that holds
// one, which is what keeps all upstream traffic behind a single funnel.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		log:        log,
	}
}

// FetchClan returns the raw clan summary payload.
func (c *Client) FetchClan(ctx context.Context, tag string) ([]byte, error) {
	encoded, err := EncodeTag(tag)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "/clans/"+encoded)
}

// FetchPlayer returns the raw player summary payload.
func (c *Client) FetchPlayer(ctx context.Context, tag string) ([]byte, error) {
	encoded, err := EncodeTag(tag)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "/players/"+encoded)
}

// FetchClanMembers returns the raw member list payload for a clan.
func (c *Client) FetchClanMembers(ctx context.Context, tag string) ([]byte, error) {
	encoded, err := EncodeTag(tag)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "/clans/"+encoded+"/members")
}

// FetchRaidSeasons returns the raw capital raid seasons payload for a clan.
func (c *Client) FetchRaidSeasons(ctx context.Context, tag string) ([]byte, error) {
	encoded, err := EncodeTag(tag)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "/clans/"+encoded+"/capitalraidseasons")
}

// FetchWar returns the raw current war payload for a clan.
func (c *Client) FetchWar(ctx context.Context, tag string) ([]byte, error) {
	encoded, err := EncodeTag(tag)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "/clans/"+encoded+"/currentwar")
}

// get performs the request with a short retry on transient failures (network
// errors and 5xx). Timeouts and 4xx are returned immediately as typed errors.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	retry := &backoff.Backoff{Min: 200 * time.Millisecond, Max: 2 * time.Second, Jitter: true}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		payload, retryable, err := c.do(ctx, path)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		c.log.Warn("coc api request failed",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case <-time.After(retry.Duration()):
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, path string) (payload []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, false, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, false, ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrForbidden
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return body, false, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
