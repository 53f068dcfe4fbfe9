package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amaumene/gorated/internal/config"
	"github.com/amaumene/gorated/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	breakerName  = "tmdb-api"
	cacheTTL     = 24 * time.Hour
	maxRetryTime = 30 * time.Second
)

var (
	// ErrUnauthorized is returned when TMDB rejects the api key or session
	ErrUnauthorized = errors.New("tmdb: api key or session rejected")
	// ErrSequenceConsumed is yielded when a rated sequence is ranged over twice
	ErrSequenceConsumed = errors.New("tmdb: sequence already consumed, call the fetcher again")
)

// StatusError is a non-2xx response from TMDB
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb request failed with status %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether the failure may go away on its own
func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client handles communication with the TMDB v3 API. The session is
// expected to be authorized already.
type Client struct {
	baseURL    string
	apiKey     string
	sessionID  string
	accountID  int64
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	cache      *cache.Cache
	newBackOff func() backoff.BackOff
	logger     *logrus.Logger
}

// NewClient creates a new TMDB API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" || cfg.TMDBSessionID == "" {
		return nil, fmt.Errorf("tmdb api key and session id are required")
	}
	if _, err := url.Parse(cfg.TMDBBaseURL); err != nil || cfg.TMDBBaseURL == "" {
		return nil, fmt.Errorf("invalid tmdb base url %q", cfg.TMDBBaseURL)
	}

	c := &Client{
		baseURL:    cfg.TMDBBaseURL,
		apiKey:     cfg.TMDBAPIKey,
		sessionID:  cfg.TMDBSessionID,
		accountID:  cfg.TMDBAccountID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache.New(cacheTTL, time.Hour),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxRetryTime
			return b
		},
		logger: logger,
	}
	c.breaker = newBreaker(logger)

	return c, nil
}

func newBreaker(logger *logrus.Logger) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors mean the request was wrong, not that TMDB is down
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return !statusErr.retryable()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("TMDB circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// get performs an authenticated GET and decodes the JSON body into result.
// Transient failures are retried with exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	query.Set("session_id", c.sessionID)
	fullURL := c.baseURL + path + "?" + query.Encode()

	c.logger.WithFields(logrus.Fields{
		"path":  path,
		"query": redact(query).Encode(),
	}).Debug("Making TMDB API request")

	operation := func() error {
		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, fullURL)
		})
		if err != nil {
			return classify(err)
		}
		metrics.RemoteRequests.WithLabelValues("success").Inc()

		if err := json.Unmarshal(body, result); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx))
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// classify decides which failures are worth retrying
func classify(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RemoteRequests.WithLabelValues("rejected").Inc()
		return backoff.Permanent(err)
	}
	metrics.RemoteRequests.WithLabelValues("failure").Inc()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return backoff.Permanent(err)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && !statusErr.retryable() {
		if statusErr.StatusCode == http.StatusUnauthorized {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrUnauthorized, statusErr))
		}
		return backoff.Permanent(err)
	}
	return err
}

func redact(query url.Values) url.Values {
	out := url.Values{}
	for key, values := range query {
		if key == "api_key" || key == "session_id" {
			out.Set(key, "***")
			continue
		}
		out[key] = values
	}
	return out
}
