package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages in headless Chrome sessions using chromedp.
//
// Design decision: We create a fresh browser context per Render call rather
// than reusing tabs because:
//  1. Page state (JS globals, service workers) cannot leak between targets
//  2. A crashed tab takes down one target, not the whole crawl
//  3. The worker pool already bounds how many sessions exist at once
type ChromeRenderer struct {
	// timeout is the per-page render budget.
	timeout time.Duration

	// settleTimeout bounds the network-settle wait after navigation.
	// Expiry is non-fatal; the DOM is captured as-is.
	settleTimeout time.Duration

	// userAgent overrides the browser User-Agent when non-empty.
	userAgent string

	// headless controls whether Chrome runs without a display.
	headless bool

	// cookie is an optional "name=value; name2=value2" cookie string
	// seeded into the session before navigation.
	cookie string

	// cookieDomain is the domain the seeded cookies are scoped to.
	cookieDomain string

	// extraHeaders are custom HTTP headers sent with every request in the
	// session.
	extraHeaders map[string]string

	// logger is used for per-render debug logging.
	logger *slog.Logger
}

// ChromeOption configures a ChromeRenderer.
type ChromeOption func(*ChromeRenderer)

// WithTimeout sets the per-page render budget.
func WithTimeout(d time.Duration) ChromeOption {
	return func(r *ChromeRenderer) {
		r.timeout = d
	}
}

// WithSettleTimeout sets the bounded network-settle wait.
func WithSettleTimeout(d time.Duration) ChromeOption {
	return func(r *ChromeRenderer) {
		r.settleTimeout = d
	}
}

// WithUserAgent sets a custom browser User-Agent.
func WithUserAgent(ua string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.userAgent = ua
	}
}

// WithHeadless controls headless mode. Headless is the default; disabling
// it is useful only when debugging a crawl interactively.
func WithHeadless(headless bool) ChromeOption {
	return func(r *ChromeRenderer) {
		r.headless = headless
	}
}

// WithCookie seeds a cookie string ("name=value; name2=value2") scoped to
// the given domain into every session before navigation.
func WithCookie(cookie, domain string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.cookie = cookie
		r.cookieDomain = domain
	}
}

// WithExtraHeaders installs custom HTTP headers sent with every request in
// the session. Useful for sites behind basic auth or custom gateways.
func WithExtraHeaders(headers map[string]string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.extraHeaders = headers
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ChromeOption {
	return func(r *ChromeRenderer) {
		r.logger = logger
	}
}

// NewChromeRenderer creates a ChromeRenderer with the given options.
func NewChromeRenderer(opts ...ChromeOption) *ChromeRenderer {
	r := &ChromeRenderer{
		timeout:       45 * time.Second,
		settleTimeout: 5 * time.Second,
		headless:      true,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Render navigates to the target URL in a fresh headless session and
// captures the final location and rendered markup.
func (r *ChromeRenderer) Render(parentCtx context.Context, pageURL string) (*Result, error) {
	if _, err := url.Parse(pageURL); err != nil {
		return nil, fmt.Errorf("invalid render URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(parentCtx, r.timeout)
	defer cancel()

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", r.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		// Reduce automation fingerprints; some sites block obvious bots.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	}
	if r.userAgent != "" {
		execOpts = append(execOpts, chromedp.UserAgent(r.userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()
	var html string
	var loadedURL string

	actions := []chromedp.Action{network.Enable()}
	if len(r.extraHeaders) > 0 {
		headers := make(network.Headers, len(r.extraHeaders))
		for k, v := range r.extraHeaders {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	if r.cookie != "" {
		actions = append(actions, r.seedCookies())
	}
	actions = append(actions, chromedp.Navigate(pageURL))

	settled := true
	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := r.waitSettled(ctx); err != nil {
			// Settle timeout is non-fatal: extraction proceeds on the
			// DOM as-is.
			if errors.Is(err, context.DeadlineExceeded) {
				settled = false
				return nil
			}
			return err
		}
		return nil
	}))
	actions = append(actions,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&loadedURL),
	)

	if err := chromedp.Run(chromeCtx, actions...); err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	if loadedURL == "" {
		loadedURL = pageURL
	}

	r.logger.Debug("render complete",
		"url", pageURL,
		"final_url", loadedURL,
		"settled", settled,
		"latency_ms", time.Since(start).Milliseconds(),
		"html_bytes", len(html),
	)

	return &Result{
		RequestedURL: pageURL,
		LoadedURL:    loadedURL,
		HTML:         html,
		Settled:      settled,
		Attempts:     1,
	}, nil
}

// seedCookies installs the configured cookie string into the session.
func (r *ChromeRenderer) seedCookies() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, pair := range strings.Split(r.cookie, ";") {
			name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
			if !found || name == "" {
				continue
			}
			err := network.SetCookie(name, value).
				WithDomain(r.cookieDomain).
				WithPath("/").
				Do(ctx)
			if err != nil {
				return fmt.Errorf("seed cookie %s: %w", name, err)
			}
		}
		return nil
	})
}

// waitSettled polls document.readyState until the document is complete or
// the settle budget expires.
func (r *ChromeRenderer) waitSettled(ctx context.Context) error {
	settleCtx, cancel := context.WithTimeout(ctx, r.settleTimeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		var readyState string
		if err := chromedp.Evaluate(`document.readyState`, &readyState).Do(settleCtx); err != nil {
			return err
		}
		if readyState == "complete" {
			return nil
		}
		select {
		case <-ticker.C:
		case <-settleCtx.Done():
			return settleCtx.Err()
		}
	}
}
