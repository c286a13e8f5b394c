package site

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserClient fetches pages through a headless Chrome instance.
// Used for result pages that render their tables client-side.
type BrowserClient struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	settle   time.Duration
}

// NewBrowserClient starts a headless browser allocator
func NewBrowserClient(timeout time.Duration, userAgent string) *BrowserClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = UserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserClient{
		allocCtx: allocCtx,
		cancel:   cancel,
		timeout:  timeout,
		settle:   time.Second,
	}
}

// Close releases the browser allocator
func (b *BrowserClient) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// Fetch navigates to url and returns the rendered document
func (b *BrowserClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	browserCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	// propagate caller cancellation into the browser context
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	// written from chromedp's event goroutine
	var status atomic.Int64

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			recordStatus(&status, url, resp.Response)
		}
	})

	err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept": AcceptHTML}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("chromedp: %w", err)}
	}

	if code := status.Load(); code != 0 && (code < 200 || code >= 300) {
		return nil, &FetchError{URL: url, StatusCode: int(code)}
	}

	if html == "" {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("empty HTML content returned")}
	}

	return []byte(html), nil
}

// recordStatus keeps the status of the response for the requested document
func recordStatus(status *atomic.Int64, url string, resp *network.Response) {
	if resp != nil && resp.URL == url {
		status.Store(resp.Status)
	}
}
