// Package channel delivers formatted reports as new messages in a chat
// channel via the platform's message-creation API, authenticated with a bot
// token.
package channel

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/opsgate/errship"
)

// Config captures the connection data the channel sink needs.
type Config struct {
	BotToken  string
	ChannelID string
	// Timeout applies to the default HTTP client only.
	Timeout time.Duration
	// Client overrides the HTTP client; per-request timeouts belong here.
	Client *http.Client
	// APIURL overrides the platform API base URL. Mostly for tests. Must
	// end with a slash.
	APIURL string
}

// Sink posts messages to one configured channel.
type Sink struct {
	api       *slack.Client
	channelID string
}

// New validates the config and builds the sink. Missing credentials fail
// here, at construction, not at first delivery.
func New(cfg Config) (*Sink, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errors.New("channel bot token is required")
	}

	channelID := strings.TrimSpace(cfg.ChannelID)
	if channelID == "" {
		return nil, errors.New("channel id is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	opts := []slack.Option{slack.OptionHTTPClient(hc)}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}

	return &Sink{
		api:       slack.New(token, opts...),
		channelID: channelID,
	}, nil
}

// Name identifies the sink in outcomes and logs.
func (s *Sink) Name() string { return "channel:" + s.channelID }

// Kind reports the formatting this sink expects.
func (s *Sink) Kind() errship.Kind { return errship.KindChannel }

// Deliver creates one message in the configured channel. Single-shot: rate
// limiting is surfaced to the caller, never waited out here.
func (s *Sink) Deliver(ctx context.Context, message string) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(message, false))
	if err == nil {
		return nil
	}
	return classify(err)
}

func classify(err error) error {
	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return &errship.RateLimitedError{RetryAfter: rateErr.RetryAfter}
	}

	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		return &errship.RejectedError{Status: statusErr.Code, Body: statusErr.Status}
	}

	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		return &errship.RejectedError{Body: apiErr.Err}
	}

	return &errship.TransportError{Err: err}
}
