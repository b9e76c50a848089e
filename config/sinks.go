package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsgate/errship"
	"github.com/opsgate/errship/sinks/channel"
	"github.com/opsgate/errship/sinks/filesink"
	"github.com/opsgate/errship/sinks/webhook"
)

// ChannelConfig controls the chat-channel sink.
type ChannelConfig struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	BotToken  string `env:"BOT_TOKEN"`
	ChannelID string `env:"CHANNEL_ID"`
}

func (c *ChannelConfig) sanitize() {
	c.BotToken = strings.TrimSpace(c.BotToken)
	c.ChannelID = strings.TrimSpace(c.ChannelID)
	if c.Enabled && (c.BotToken == "" || c.ChannelID == "") {
		c.Enabled = false
	}
}

// WebhookConfig controls the webhook sink.
type WebhookConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	URL      string `env:"URL"`
	Token    string `env:"TOKEN"`
	Username string `env:"USERNAME" envDefault:"errship"`
}

func (c *WebhookConfig) sanitize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Token = strings.TrimSpace(c.Token)
	c.Username = strings.TrimSpace(c.Username)
	if c.Enabled && c.URL == "" {
		c.Enabled = false
	}
}

// FileConfig controls the append-file sink.
type FileConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Path    string `env:"PATH"`
	Create  bool   `env:"CREATE" envDefault:"true"`
}

func (c *FileConfig) sanitize() {
	c.Path = strings.TrimSpace(c.Path)
	if c.Enabled && c.Path == "" {
		c.Enabled = false
	}
}

// Build constructs the enabled sinks in channel, webhook, file order and
// returns the dispatcher over them. Invalid sink configuration fails here,
// fast, rather than at the first report. An empty sink set is legal; it is
// logged as a warning and yields a no-op dispatcher.
func (c *Config) Build(logger *slog.Logger) (*errship.Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []errship.Sink

	if c.Channel.Enabled {
		sink, err := channel.New(channel.Config{
			BotToken:  c.Channel.BotToken,
			ChannelID: c.Channel.ChannelID,
			Timeout:   c.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("build channel sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	if c.Webhook.Enabled {
		sink, err := webhook.New(webhook.Config{
			URL:      c.Webhook.URL,
			Token:    c.Webhook.Token,
			Username: c.Webhook.Username,
			Timeout:  c.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("build webhook sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	if c.File.Enabled {
		sink, err := filesink.New(filesink.Config{
			Path:     c.File.Path,
			NoCreate: !c.File.Create,
		})
		if err != nil {
			return nil, fmt.Errorf("build file sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	if len(sinks) == 0 {
		logger.Warn("no report sinks enabled, reports will be dropped")
	}

	return errship.New(errship.Options{
		Logger:     logger,
		Formatter:  errship.Formatter{MaxLength: c.MaxMessageLength},
		Sinks:      sinks,
		Concurrent: c.Concurrent,
	}), nil
}
