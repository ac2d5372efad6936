// Package mediawiki queries the MediaWiki action API for article source,
// article summaries and category listings.
package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIURL is the English Wikipedia action API.
	DefaultAPIURL = "https://en.wikipedia.org/w/api.php"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond keeps the client within API etiquette.
	DefaultRequestsPerSecond = 5.0

	expectedContentType = "application/json; charset=utf-8"
	categoryPrefix      = "Category:"
)

// ErrUnexpectedResponse indicates a status, content type or payload the client cannot interpret.
var ErrUnexpectedResponse = errors.New("mediawiki: unexpected response")

// Client is a rate-limited MediaWiki API client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiURL     string
	userAgent  string
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

// WithAPIURL sets the api.php endpoint (for testing or other wikis).
func WithAPIURL(apiURL string) ClientOption {
	return func(c *Client) {
		c.apiURL = apiURL
	}
}

// WithUserAgent sets the User-Agent header; Wikimedia asks clients to identify themselves.
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

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a MediaWiki client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		apiURL:     DefaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// FetchContent returns the current wikitext of an article. found is false when
// the page does not exist or has no revisions.
func (c *Client) FetchContent(ctx context.Context, title string) (string, bool, error) {
	params := url.Values{}
	params.Set("prop", "revisions")
	params.Set("rvprop", "content")
	params.Set("rvslots", "main")
	params.Set("titles", title)

	var reply queryReply
	if err := c.query(ctx, params, &reply); err != nil {
		return "", false, err
	}
	page, err := reply.firstPage()
	if err != nil {
		return "", false, err
	}
	if page.Title != title {
		return "", false, fmt.Errorf("%w: requested %q, got page %q", ErrUnexpectedResponse, title, page.Title)
	}
	if page.Missing || len(page.Revisions) == 0 {
		c.logger.Debug("article has no revisions", zap.String("title", title))
		return "", false, nil
	}
	return page.Revisions[0].text(), true, nil
}

// ArticleProps returns the intro extract and categories of an article.
func (c *Client) ArticleProps(ctx context.Context, title string) (ArticleProps, error) {
	params := url.Values{}
	params.Set("prop", "extracts|categories")
	params.Set("exintro", "1")
	params.Set("clprop", "hidden")
	params.Set("cllimit", "max")
	params.Set("titles", title)

	var reply queryReply
	if err := c.query(ctx, params, &reply); err != nil {
		return ArticleProps{}, err
	}
	page, err := reply.firstPage()
	if err != nil {
		return ArticleProps{}, err
	}

	props := ArticleProps{
		Title:      page.Title,
		Extract:    page.Extract,
		Categories: make([]Category, 0, len(page.Categories)),
	}
	for _, category := range page.Categories {
		props.Categories = append(props.Categories, Category{
			Name:   strings.TrimPrefix(category.Title, categoryPrefix),
			Hidden: category.Hidden,
		})
	}
	return props, nil
}

// CategoryMembers lists the articles (namespace 0) in a category.
func (c *Client) CategoryMembers(ctx context.Context, category string) ([]CategoryMember, error) {
	params := url.Values{}
	params.Set("list", "categorymembers")
	params.Set("cmtitle", categoryPrefix+category)
	params.Set("cmlimit", "max")
	params.Set("cmnamespace", "0")

	var reply queryReply
	if err := c.query(ctx, params, &reply); err != nil {
		return nil, err
	}
	members := make([]CategoryMember, 0, len(reply.Query.CategoryMembers))
	for _, member := range reply.Query.CategoryMembers {
		members = append(members, CategoryMember{PageID: member.PageID, Title: member.Title})
	}
	return members, nil
}

func (c *Client) query(ctx context.Context, params url.Values, into *queryReply) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("action", "query")
	params.Set("continue", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	defer resp.Body.Close()

	var problems []string
	if resp.StatusCode != http.StatusOK {
		problems = append(problems, fmt.Sprintf("status code: %d", resp.StatusCode))
	}
	if contentType := resp.Header.Get("Content-Type"); contentType != expectedContentType {
		problems = append(problems, fmt.Sprintf("content-type: %s", contentType))
	}
	if len(problems) > 0 {
		c.logger.Warn("mediawiki query rejected",
			zap.String("action", params.Get("prop")+params.Get("list")),
			zap.Strings("problems", problems))
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, strings.Join(problems, ", "))
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnexpectedResponse, err)
	}
	if into.Query == nil {
		return fmt.Errorf("%w: reply has no query member", ErrUnexpectedResponse)
	}
	return nil
}
