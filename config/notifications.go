package config

import (
	"strings"
	"time"
)

const defaultNotifierName = "opsrelay"

// NotificationsConfig controls outbound notification sinks.
// Delivery is fire-and-forget: sinks are never retried.
type NotificationsConfig struct {
	Timeout time.Duration           `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	Chat    ChatNotificationConfig  `envPrefix:"CHAT_"`
	Slack   SlackNotificationConfig `envPrefix:"SLACK_"`
	SNS     SNSNotificationConfig   `envPrefix:"SNS_"`
}

// Sanitize normalises notification configuration values and disables sinks missing required settings.
func (c *NotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	c.Chat.sanitize()
	c.Slack.sanitize()
	c.SNS.sanitize()
}

// AnyEnabled reports whether at least one sink is active.
func (c *NotificationsConfig) AnyEnabled() bool {
	return c.Chat.Enabled || c.Slack.Enabled || c.SNS.Enabled
}

// ChatNotificationConfig addresses a Chatwork-style room endpoint:
// POST <URL>/rooms/<Room>/messages with form field body and a token header.
type ChatNotificationConfig struct {
	Enabled     bool   `env:"ENABLED"      envDefault:"true"`
	URL         string `env:"URL"          envDefault:"https://api.chatwork.com/v2"`
	Token       string `env:"TOKEN"`
	Room        string `env:"ROOM"`
	TokenHeader string `env:"TOKEN_HEADER" envDefault:"X-ChatWorkToken"`
}

func (c *ChatNotificationConfig) sanitize() {
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	c.Token = strings.TrimSpace(c.Token)
	c.Room = strings.TrimSpace(c.Room)
	if c.TokenHeader = strings.TrimSpace(c.TokenHeader); c.TokenHeader == "" {
		c.TokenHeader = "X-ChatWorkToken"
	}
	if c.URL == "" || c.Token == "" || c.Room == "" {
		c.Enabled = false
	}
}

// SlackNotificationConfig controls Slack webhook fan-out.
type SlackNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"opsrelay"`
}

func (c *SlackNotificationConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Username = strings.TrimSpace(c.Username); c.Username == "" {
		c.Username = defaultNotifierName
	}
	if c.WebhookURL == "" {
		c.Enabled = false
	}
}

// SNSNotificationConfig publishes failure alerts to an SNS topic (typically e-mail subscribers).
type SNSNotificationConfig struct {
	Enabled  bool   `env:"ENABLED"   envDefault:"false"`
	TopicARN string `env:"TOPIC_ARN"`
	Subject  string `env:"SUBJECT"   envDefault:"opsrelay alert"`
	// FailuresOnly suppresses success notifications on this sink.
	FailuresOnly bool `env:"FAILURES_ONLY" envDefault:"true"`
}

func (c *SNSNotificationConfig) sanitize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	if c.Subject = strings.TrimSpace(c.Subject); c.Subject == "" {
		c.Subject = defaultNotifierName + " alert"
	}
	if c.TopicARN == "" {
		c.Enabled = false
	}
}
