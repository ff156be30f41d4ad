package kickwelt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

// BrowserFetcher fetches documents through a headless browser. Some source
// pages render their tables with JavaScript and serve an empty shell to plain
// HTTP clients; this fetcher is selected by configuration for those.
type BrowserFetcher struct {
	origin   string
	limiter  *rate.Limiter
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowserFetcher creates a headless-browser fetcher for the given origin.
func NewBrowserFetcher(origin string) *BrowserFetcher {
	if origin == "" {
		origin = DefaultOrigin
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserFetcher{
		origin:   strings.TrimRight(origin, "/"),
		limiter:  rate.NewLimiter(rate.Limit(0.5), 1),
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close releases the browser allocator.
func (b *BrowserFetcher) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// FetchDocument navigates to the page, waits for the body to render and
// parses the resulting HTML.
func (b *BrowserFetcher) FetchDocument(ctx context.Context, pathOrURL, referer string) (*goquery.Document, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	url := pathOrURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = b.origin + NormalizePath(url)
	}

	browserCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second), // Allow JS to render
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp error: %w", err)
	}

	if htmlContent == "" {
		return nil, fmt.Errorf("empty HTML content returned from %s", url)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parsing rendered document %s: %w", url, err)
	}

	return doc, nil
}
