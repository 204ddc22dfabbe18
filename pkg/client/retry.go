package client

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scribe_retries_total",
		Help: "Total number of retry attempts",
	})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scribe_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})
)

// maxBackoff caps the exponential backoff between read retries.
const maxBackoff = 10 * time.Second

// execute runs the HTTP exchange. Idempotent reads are retried with
// jittered exponential backoff on transport errors and 5xx replies;
// mutating requests get exactly one attempt. A 5xx on the final attempt
// is returned as a status, not an error, so the envelope parser can
// classify it.
func (c *Client) execute(ctx context.Context, logger zerolog.Logger, method string, target *url.URL, payload []byte) (int, []byte, error) {
	maxAttempts := 1
	if isReadMethod(method) {
		maxAttempts = c.config.MaxRetries
	}

	backoff := c.config.InitialBackoff
	var lastErr error

	for attempt := 1; ; attempt++ {
		status, body, err := c.roundTrip(ctx, method, target, payload)

		retriable := err != nil || status >= 500
		if !retriable {
			if attempt > 1 {
				logger.Info().Int("attempt", attempt).Msg("Request succeeded after retry")
			}
			return status, body, nil
		}

		if attempt >= maxAttempts {
			if maxAttempts > 1 {
				retryExhaustedTotal.Inc()
				logger.Warn().Int("max_attempts", maxAttempts).Msg("Retry attempts exhausted")
			}
			return status, body, err
		}
		lastErr = err

		retriesTotal.Inc()

		// Jitter (±20%) prevents synchronized retries.
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		logger.Debug().
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			logger.Warn().Int("attempt", attempt).Msg("Context cancelled during retry backoff")
			if lastErr != nil {
				return 0, nil, fmt.Errorf("%v: %w", lastErr, ctx.Err())
			}
			return 0, nil, ctx.Err()
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * 2)
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// readBody drains a response body with a size cap.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return body, nil
}
