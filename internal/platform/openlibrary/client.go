package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://openlibrary.org"
	defaultTimeout = 15 * time.Second

	// SearchFields is the projection requested from search.json.
	SearchFields = "key,title,author_name,cover_i,first_publish_year"
	// Language restricts search and edition lookups to English records.
	Language = "eng"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	UserAgent  string
	RPS        int
	MaxRetries int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the Open Library JSON API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	logger     *slog.Logger

	// sleep is replaced in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Every(time.Second / time.Duration(opts.RPS))
	}

	return &Client{
		httpClient: opts.HTTPClient,
		userAgent:  opts.UserAgent,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: opts.MaxRetries,
		logger:     opts.Logger,
		sleep:      sleepContext,
	}
}

// SearchParams are the provider-level parameters of a search.json call.
type SearchParams struct {
	Q        string
	Subjects []string
	Sort     string
	Offset   int
	Limit    int
}

// Values encodes the parameters the way search.json expects them.
func (p SearchParams) Values() url.Values {
	v := url.Values{}
	v.Set("q", p.Q)
	for _, s := range p.Subjects {
		v.Add("subject", s)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	v.Set("offset", strconv.Itoa(p.Offset))
	v.Set("limit", strconv.Itoa(p.Limit))
	v.Set("fields", SearchFields)
	v.Set("language", Language)
	return v
}

// Search calls /search.json.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	u := fmt.Sprintf("%s/search.json?%s", c.baseURL, p.Values().Encode())

	var res SearchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, &Error{Op: "search", Key: p.Q, Err: err}
	}
	return &res, nil
}

// Work fetches /works/{workID}.json.
func (c *Client) Work(ctx context.Context, workID string) (*Work, error) {
	u := fmt.Sprintf("%s/works/%s.json", c.baseURL, url.PathEscape(workID))

	var res Work
	if err := c.get(ctx, u, &res); err != nil {
		return nil, &Error{Op: "work", Key: workID, Err: err}
	}
	return &res, nil
}

// Editions fetches the first editions of a work.
func (c *Client) Editions(ctx context.Context, workID string, limit int) (*EditionsResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("language", Language)
	u := fmt.Sprintf("%s/works/%s/editions.json?%s", c.baseURL, url.PathEscape(workID), q.Encode())

	var res EditionsResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, &Error{Op: "editions", Key: workID, Err: err}
	}
	return &res, nil
}

// Author fetches an author record. authorKey may be "/authors/OL1A" or just "OL1A".
func (c *Client) Author(ctx context.Context, authorKey string) (*AuthorRecord, error) {
	key := strings.TrimPrefix(authorKey, "/authors/")
	u := fmt.Sprintf("%s/authors/%s.json", c.baseURL, url.PathEscape(key))

	var res AuthorRecord
	if err := c.get(ctx, u, &res); err != nil {
		return nil, &Error{Op: "author", Key: key, Err: err}
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			if err := c.sleep(ctx, backoff); err != nil {
				return err
			}
		}

		retry, err := c.do(ctx, url, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		c.logger.Debug("openlibrary request failed, retrying", "url", url, "attempt", i+1, "error", err)
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// do performs one attempt and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, url string, target any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return false, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return false, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsNotFound reports whether err means the provider has no such record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
