// Package chatwork posts messages to a Chatwork-style room endpoint.
package chatwork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/opsrelay/internal/observability/notify"
)

// Config captures the room endpoint and credentials.
type Config struct {
	BaseURL     string
	Room        string
	Token       string
	TokenHeader string
	Timeout     time.Duration
	Client      *http.Client
}

// Client delivers messages as a form POST to <BaseURL>/rooms/<Room>/messages.
type Client struct {
	endpoint    string
	token       string
	tokenHeader string
	client      *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	room := strings.TrimSpace(cfg.Room)
	token := strings.TrimSpace(cfg.Token)
	if base == "" || room == "" || token == "" {
		return nil, errors.New("chatwork base url, room and token are required")
	}

	endpoint, err := url.JoinPath(base, "rooms", room, "messages")
	if err != nil {
		return nil, fmt.Errorf("build chatwork endpoint: %w", err)
	}

	header := strings.TrimSpace(cfg.TokenHeader)
	if header == "" {
		header = "X-ChatWorkToken"
	}

	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{endpoint: endpoint, token: token, tokenHeader: header, client: hc}, nil
}

// Send posts the message body once.
func (c *Client) Send(ctx context.Context, msg notify.Message) error {
	body := strings.TrimSpace(msg.Body())
	if body == "" {
		return nil
	}

	form := url.Values{}
	form.Set("body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create chatwork request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(c.tokenHeader, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chatwork request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("chatwork %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
