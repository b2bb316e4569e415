package articles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"lookout/pkg/clients"
	"lookout/pkg/logging"
)

// FetchError indicates the source connector was unreachable or returned an
// error status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("article source unreachable (%s): %v", e.URL, e.Err)
	}
	return fmt.Sprintf("article source returned status %d (%s)", e.StatusCode, e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SourceClient talks to the external article source connector. Retry and
// circuit breaker state is shared across requests: the breaker counts one
// failure per exhausted fetch, not per attempt.
type SourceClient struct {
	baseURL    string
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	breaker    *clients.CircuitBreaker
	logger     logging.Logger
}

// NewSourceClient creates a client for the article source connector at baseURL.
func NewSourceClient(baseURL string, logger logging.Logger) *SourceClient {
	cbCfg := clients.DefaultCircuitBreakerConfig()
	cbCfg.Name = "article-source"
	cbCfg.Logger = logger

	return &SourceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   clients.NewHTTPExecutor(clients.DefaultHTTPExecutorConfig()),
		breaker:    clients.NewCircuitBreaker(cbCfg),
		logger:     logger,
	}
}

// Breaker exposes the connector circuit breaker for health reporting.
func (c *SourceClient) Breaker() *clients.CircuitBreaker {
	return c.breaker
}

// FetchArticles retrieves all articles published since the given time.
func (c *SourceClient) FetchArticles(ctx context.Context, since time.Time) ([]Article, error) {
	endpoint := fmt.Sprintf("%s/articles?since=%s", c.baseURL, url.QueryEscape(since.UTC().Format(time.RFC3339)))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	var resp *http.Response
	err = c.breaker.Call(func() error {
		r, callErr := clients.DoWithRetry(ctx, c.httpClient, req, c.executor)
		if callErr != nil {
			return &FetchError{URL: endpoint, Err: callErr}
		}
		if r.StatusCode != http.StatusOK {
			_ = r.Body.Close()
			return &FetchError{URL: endpoint, StatusCode: r.StatusCode}
		}
		resp = r
		return nil
	})
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		// breaker open: the connector was never contacted
		return nil, &FetchError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: endpoint, Err: err}
	}

	var result []Article
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &FetchError{URL: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logger.WithFields(logging.Fields{
		"count": len(result),
		"since": since.UTC().Format(time.RFC3339),
	}).Debug("Fetched articles from source connector")

	return result, nil
}

// HealthURL returns the connector's health endpoint for use in health checks.
func (c *SourceClient) HealthURL() string {
	return c.baseURL + "/health"
}
