// Package webhook delivers formatted reports by POSTing a JSON payload to a
// platform webhook URL. Authentication is the URL itself, optionally extended
// with a token query parameter.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opsgate/errship"
)

// Config captures the connection data the webhook sink needs.
type Config struct {
	URL string
	// Token, when set, is appended to the URL as a query parameter.
	Token string
	// Username labels the posted message when the platform supports it.
	Username string
	// Timeout applies to the default HTTP client only.
	Timeout time.Duration
	// Client overrides the HTTP client; per-request timeouts belong here.
	Client *http.Client
}

// Sink posts messages to one configured webhook.
type Sink struct {
	url      string
	host     string
	username string
	client   *http.Client
}

// New validates the config and builds the sink.
func New(cfg Config) (*Sink, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return nil, errors.New("webhook url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("webhook url %q is missing scheme or host", raw)
	}

	if token := strings.TrimSpace(cfg.Token); token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Sink{
		url:      u.String(),
		host:     u.Host,
		username: strings.TrimSpace(cfg.Username),
		client:   hc,
	}, nil
}

// Name identifies the sink in outcomes and logs. The token never appears.
func (s *Sink) Name() string { return "webhook:" + s.host }

// Kind reports the formatting this sink expects.
func (s *Sink) Kind() errship.Kind { return errship.KindWebhook }

// Deliver posts one message to the webhook. Single-shot: a 429 is surfaced as
// a rate-limit failure, never retried here.
func (s *Sink) Deliver(ctx context.Context, message string) error {
	payload := map[string]any{"text": message}
	if s.username != "" {
		payload["username"] = s.username
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &errship.TransportError{Err: fmt.Errorf("encode webhook payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return &errship.TransportError{Err: fmt.Errorf("create webhook request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &errship.TransportError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return rateLimited(resp)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return rejected(resp)
	}

	if err := drain(resp); err != nil {
		return &errship.TransportError{Err: err}
	}
	return nil
}

func rateLimited(resp *http.Response) error {
	retryAfter := time.Duration(0)
	if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
		retryAfter = time.Duration(secs) * time.Second
	}
	// Body content carries no extra signal on 429.
	if err := drain(resp); err != nil {
		return &errship.TransportError{Err: err}
	}
	return &errship.RateLimitedError{RetryAfter: retryAfter}
}

func rejected(resp *http.Response) error {
	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return &errship.TransportError{Err: errors.Join(
				fmt.Errorf("read webhook error response: %w", readErr),
				fmt.Errorf("close response body: %w", closeErr),
			)}
		}
		return &errship.TransportError{Err: fmt.Errorf("read webhook error response: %w", readErr)}
	}
	if err := resp.Body.Close(); err != nil {
		return &errship.TransportError{Err: fmt.Errorf("close response body: %w", err)}
	}

	return &errship.RejectedError{
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(respBody)),
	}
}

func drain(resp *http.Response) error {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return errors.Join(
				fmt.Errorf("drain webhook response body: %w", err),
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return fmt.Errorf("drain webhook response body: %w", err)
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}
