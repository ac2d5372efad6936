package archival

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the fatcat API root.
	DefaultBaseURL = "https://api.fatcat.wiki/v0"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond keeps lookups polite towards the public API.
	DefaultRequestsPerSecond = 5.0

	lookupPath = "/release/lookup"
	// notFoundBody is cached for DOIs the index does not know.
	notFoundBody = "{}"
)

var (
	// ErrUnexpectedResponse indicates a status or payload the lookup cannot interpret.
	ErrUnexpectedResponse = errors.New("archival: unexpected response")
	errMissingDOI         = errors.New("archival: doi required")
)

// Cache stores raw lookup responses keyed by escaped DOI.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte) error
}

// Client looks up releases by DOI.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	cache      Cache
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom API root (for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRateLimit bounds the request rate; zero or negative disables limiting.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// WithCache sets the response cache.
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a fatcat client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// CacheKey normalizes a DOI into its cache key. DOIs are case-insensitive.
func CacheKey(doi string) string {
	return url.QueryEscape(strings.ToLower(strings.TrimSpace(doi)))
}

// LookupDOI resolves a DOI. A DOI unknown to the index yields an empty Item.
func (c *Client) LookupDOI(ctx context.Context, doi string) (Item, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return Item{}, errMissingDOI
	}
	key := CacheKey(doi)

	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("doi cache read failed", zap.String("doi", doi), zap.Error(err))
		} else if ok {
			return decodeItem(body)
		}
	}

	body, err := c.fetch(ctx, doi)
	if err != nil {
		return Item{}, err
	}
	item, err := decodeItem(body)
	if err != nil {
		return Item{}, err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, body); err != nil {
			c.logger.Warn("doi cache write failed", zap.String("doi", doi), zap.Error(err))
		}
	}
	return item, nil
}

func (c *Client) fetch(ctx context.Context, doi string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("doi", doi)
	params.Set("expand", "files")
	params.Set("hide", "abstracts,refs")
	reqURL := c.baseURL + lookupPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		c.logger.Debug("doi unknown to archival index", zap.String("doi", doi))
		return []byte(notFoundBody), nil
	default:
		return nil, fmt.Errorf("%w: status %d for doi %s", ErrUnexpectedResponse, resp.StatusCode, doi)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnexpectedResponse, err)
	}
	return body, nil
}

func decodeItem(body []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return Item{}, fmt.Errorf("%w: decode release: %v", ErrUnexpectedResponse, err)
	}
	return item, nil
}
