package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/target/opsrelay/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	Client     *http.Client
}

// Client delivers notifications to a Slack incoming webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	client     *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a Slack webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = "opsrelay"
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   username,
		client:     hc,
	}, nil
}

// Send posts a formatted message to Slack. A failed post is returned, not retried.
func (c *Client) Send(ctx context.Context, msg notify.Message) error {
	body, err := json.Marshal(c.formatMessage(msg))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return fmt.Errorf("slack webhook %s: read error response: %w", resp.Status, readErr)
		}
		return fmt.Errorf("slack webhook %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain slack response body: %w", err)
	}
	return nil
}

func (c *Client) formatMessage(msg notify.Message) map[string]any {
	timestamp := msg.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var text strings.Builder
	writeHeader(&text, msg)
	if body := strings.TrimSpace(msg.Text); body != "" {
		text.WriteString(escapeSlackText(body))
		text.WriteByte('\n')
	}
	appendField(&text, "Target", escapeSlackText(msg.Target))
	appendField(&text, "Outcome", msg.Outcome)
	appendMetadata(&text, msg.Metadata)
	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	out := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		out["channel"] = c.channel
	}
	return out
}

func writeHeader(text *strings.Builder, msg notify.Message) {
	title := strings.TrimSpace(msg.Title)
	if title == "" {
		title = "opsrelay"
	}
	text.WriteByte('*')
	text.WriteString(escapeSlackText(title))
	text.WriteByte('*')
	if msg.Severity != "" && msg.Severity != notify.SeverityInfo {
		text.WriteString(" [")
		text.WriteString(msg.Severity)
		text.WriteByte(']')
	}
	text.WriteByte('\n')
}

func escapeSlackText(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(value)
}

func appendField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

func appendMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		appendField(text, k, escapeSlackText(metadata[k]))
	}
}
