package kickwelt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	// DefaultOrigin is the fixed origin relative paths resolve against
	DefaultOrigin = "https://www.kickwelt.de"

	// UserAgent presents a realistic desktop client; the source serves a
	// reduced table layout to clients it does not recognize
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// AcceptLanguage pins the locale so number/date formatting is stable
	AcceptLanguage = "de-DE,de;q=0.9,en;q=0.6"

	// errSnippetLen caps how much response body lands in a FetchError
	errSnippetLen = 160

	requestTimeout = 15 * time.Second
	maxAttempts    = 4
	backoffBase    = 400 * time.Millisecond
)

// Fetcher retrieves one document from the source. Implementations must be
// safe to retry: every request is an idempotent GET.
type Fetcher interface {
	FetchDocument(ctx context.Context, pathOrURL, referer string) (*goquery.Document, error)
}

// FetchError is a permanent transport failure: a non-2xx response after
// header inspection, carrying a snippet of the body for diagnostics.
type FetchError struct {
	Status  int
	URL     string
	Snippet string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.Status, e.Snippet)
}

// Client fetches documents over plain HTTP with a spoofed client identity,
// politeness rate limiting and retry with backoff for transient failures.
type Client struct {
	httpClient *http.Client
	origin     string
	limiter    *rate.Limiter
}

// NewClient creates a fetch client for the given origin (DefaultOrigin when
// empty).
func NewClient(origin string) *Client {
	if origin == "" {
		origin = DefaultOrigin
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		origin:     strings.TrimRight(origin, "/"),
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
}

// FetchDocument fetches a path or absolute URL and parses it. Transport
// errors, 429 and 5xx responses are retried up to maxAttempts with delays of
// base * 1.7^attempt plus jitter; other non-2xx responses fail immediately
// with a *FetchError. Parse failures are never retried here.
func (c *Client) FetchDocument(ctx context.Context, pathOrURL, referer string) (*goquery.Document, error) {
	u := c.resolveURL(pathOrURL)

	var body []byte
	op := func() error {
		b, err := c.get(ctx, u, referer)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && !retryableStatus(fe.Status) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = backoffBase
	bo.Multiplier = 1.7
	bo.RandomizationFactor = 0.4
	bo.MaxInterval = 10 * time.Second

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx)); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing document %s: %w", u, err)
	}

	return doc, nil
}

// get performs one rate-limited GET request.
func (c *Client) get(ctx context.Context, url, referer string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", AcceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if referer != "" {
		req.Header.Set("Referer", c.resolveURL(referer))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errSnippetLen))
		return nil, &FetchError{
			Status:  resp.StatusCode,
			URL:     url,
			Snippet: strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body %s: %w", url, err)
	}

	return body, nil
}

func (c *Client) resolveURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	return c.origin + NormalizePath(pathOrURL)
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
