// Package publish delivers a finished analysis to a webhook.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"call-insights-go/internal/logger"
)

type Client struct {
	URL  string
	HTTP *http.Client
	// MaxElapsed bounds the whole retry loop.
	MaxElapsed      time.Duration
	InitialInterval time.Duration

	log *logger.Logger
}

func New(url string, timeout, maxElapsed time.Duration, log *logger.Logger) *Client {
	return &Client{
		URL:             url,
		HTTP:            &http.Client{Timeout: timeout},
		MaxElapsed:      maxElapsed,
		InitialInterval: 500 * time.Millisecond,
		log:             log,
	}
}

// StatusError is a non-2xx webhook response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned %d: %s", e.Code, e.Body)
}

// Send POSTs payload as JSON. Transport errors and 5xx responses are
// retried with exponential backoff; 4xx responses fail immediately.
func (c *Client) Send(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	log := c.log.WithField("webhook", c.URL)

	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		serr := &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Permanent: don't retry on client errors
			return backoff.Permanent(serr)
		}
		return serr
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxElapsedTime = c.MaxElapsed

	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{"attempt": attempt, "retry_in": wait.String()}).
			WithError(err).Warn("webhook delivery failed, retrying")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		log.WithError(err).WithField("attempts", attempt).Error("webhook delivery failed")
		return fmt.Errorf("publish to %s: %w", c.URL, err)
	}
	log.WithField("attempts", attempt).Info("webhook delivered")
	return nil
}
