package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/coquo/internal/common"
	"github.com/ternarybob/coquo/internal/interfaces"
	"github.com/ternarybob/coquo/internal/models"
)

// Client fetches documents with request pacing and an optional page cache.
// Cached documents bypass the limiter entirely.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	cache     interfaces.PageCache
	userAgent string
	logger    arbor.ILogger
}

// New creates a document fetcher from configuration. cache may be nil.
func New(config common.FetcherConfig, cache interfaces.PageCache, logger arbor.ILogger) *Client {
	var limiter *rate.Limiter
	if config.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(config.RequestDelay.Std()), 1)
	}

	timeout := config.RequestTimeout.Std()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		http:      &http.Client{Timeout: timeout},
		limiter:   limiter,
		cache:     cache,
		userAgent: config.UserAgent,
		logger:    logger,
	}
}

// Fetch retrieves a document, returning *models.FetchError on any transport
// or HTTP-status failure.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(rawURL); ok {
			c.logger.Debug().Str("url", rawURL).Int("bytes", len(body)).Msg("Page cache hit")
			return body, nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &models.FetchError{URL: rawURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &models.FetchError{URL: rawURL, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &models.FetchError{URL: rawURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.FetchError{URL: rawURL, Err: err}
	}

	if c.cache != nil {
		if err := c.cache.Set(rawURL, body); err != nil {
			c.logger.Warn().Err(err).Str("url", rawURL).Msg("Failed to cache page")
		}
	}

	c.logger.Debug().Str("url", rawURL).Int("bytes", len(body)).Msg("Document fetched")
	return body, nil
}
