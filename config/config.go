// Package config loads sink configuration from environment variables and
// builds a ready dispatcher from it. Programmatic construction through
// errship.New remains available for embedders that manage their own config.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/opsgate/errship"
)

// Config is the process-wide reporting configuration, assembled once at
// startup.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See sinks.go for the per-sink variables.
type Config struct {
	// MaxMessageLength caps channel/webhook message bodies.
	MaxMessageLength int `env:"ERRSHIP_MAX_MESSAGE_LENGTH" envDefault:"2000"`

	// Concurrent fans deliveries out in parallel per report.
	Concurrent bool `env:"ERRSHIP_CONCURRENT" envDefault:"false"`

	// Timeout is the HTTP client timeout for the channel and webhook
	// sinks.
	Timeout time.Duration `env:"ERRSHIP_TIMEOUT" envDefault:"5s"`

	Channel ChannelConfig `envPrefix:"ERRSHIP_CHANNEL_"`
	Webhook WebhookConfig `envPrefix:"ERRSHIP_WEBHOOK_"`
	File    FileConfig    `envPrefix:"ERRSHIP_FILE_"`
}

// Load reads configuration from environment variables and applies guardrails.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to configuration values loaded from env. A sink
// missing a required field is disabled here rather than failing delivery
// later.
func (c *Config) Sanitize() {
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = errship.DefaultMaxLength
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}

	c.Channel.sanitize()
	c.Webhook.sanitize()
	c.File.sanitize()
}
