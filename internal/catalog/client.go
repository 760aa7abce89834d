package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"recipehub/pkg/apperr"
	"recipehub/pkg/logger"
)

const searchPath = "/recipes/complexSearch"

// Fetcher is what the aggregator needs from the remote catalog.
type Fetcher interface {
	FetchBatch(ctx context.Context, pageSize int) ([]Record, error)
}

// Client fetches one page of recipes from the remote catalog.
//
// The remote side enforces a tight quota, so the client keeps its own
// limiter and refuses to send a request when no token is available instead
// of queueing it. Nothing here retries.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Limiter *rate.Limiter
	Log     logger.Logger
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

func NewClient(opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	limit := rate.Inf
	burst := opts.Burst
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		BaseURL: opts.BaseURL,
		APIKey:  opts.APIKey,
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: rate.NewLimiter(limit, burst),
		Log:     log.With(logger.Component("catalog")),
	}
}

func (c *Client) FetchBatch(ctx context.Context, pageSize int) ([]Record, error) {
	if pageSize <= 0 {
		return nil, apperr.Invalid("page size must be positive, got %d", pageSize)
	}
	if c.Limiter != nil && !c.Limiter.Allow() {
		c.Log.Warn("catalog request refused by local rate limit")
		return nil, apperr.Wrap(apperr.CodeCatalogUnavailable, "catalog rate limit exhausted", nil)
	}

	u, err := url.Parse(c.BaseURL + searchPath)
	if err != nil {
		return nil, apperr.CatalogUnavailable(fmt.Errorf("build url: %w", err))
	}
	q := u.Query()
	q.Set("apiKey", c.APIKey)
	q.Set("addRecipeInformation", "true")
	q.Set("number", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperr.CatalogUnavailable(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Log.Warn("catalog request failed", logger.Error(err))
		return nil, apperr.CatalogUnavailable(fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.Log.Warn("catalog returned non-200",
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(body)),
		)
		return nil, apperr.CatalogUnavailable(fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, apperr.CatalogUnavailable(fmt.Errorf("decode: %w", err))
	}

	c.Log.Debug("catalog batch fetched",
		logger.Int("records", len(sr.Results)),
		logger.Duration("took", time.Since(start)),
	)
	return sr.Results, nil
}
