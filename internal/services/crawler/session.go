// -----------------------------------------------------------------------
// ChromeDP-backed browser session
// Implements interfaces.BrowserSession against a single headless Chrome.
// -----------------------------------------------------------------------

package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/coquo/internal/common"
	"github.com/ternarybob/coquo/internal/interfaces"
)

// Session drives one Chrome instance through chromedp. Bounded waits map a
// deadline expiry onto interfaces.ErrTargetNotFound so callers can tell
// "the element never appeared" apart from driver failures.
type Session struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	timeout       time.Duration
	logger        arbor.ILogger
}

// NewSession launches the browser. Close must be called to release it.
func NewSession(config common.BrowserConfig, logger arbor.ILogger) (*Session, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", config.NoSandbox),
	)
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser process up front so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if _, ok := ev.(*inspector.EventTargetCrashed); ok {
			logger.Error().Msg("Browser target crashed")
		}
	})

	logger.Info().Bool("headless", config.Headless).Msg("Browser session started")

	return &Session{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		timeout:       config.WaitTimeout.Std(),
		logger:        logger,
	}, nil
}

// boundedContext derives a run context from the browser context, limited by
// timeout (none when zero) and cancelled as soon as the caller's ctx ends.
func boundedContext(browser, caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(browser, timeout)
	} else {
		runCtx, cancel = context.WithCancel(browser)
	}
	stop := context.AfterFunc(caller, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// run executes browser actions bounded by timeout and interruptible through
// the caller's context. A caller cancellation surfaces as the caller's error.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := boundedContext(s.browserCtx, ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads a URL in the session's tab. Page loads carry no fixed
// deadline but stay interruptible through ctx.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// ClickLinkText clicks the first anchor whose visible text matches exactly.
// The click is bounded: a target that vanished between the wait and the
// click errors out instead of blocking on the query.
func (s *Session) ClickLinkText(ctx context.Context, text string) error {
	return s.run(ctx, s.timeout, chromedp.Click(linkTextXPath(text), chromedp.BySearch))
}

// ClickXPath clicks the first element matching the XPath expression
func (s *Session) ClickXPath(ctx context.Context, xpath string) error {
	return s.run(ctx, s.timeout, chromedp.Click(xpath, chromedp.BySearch))
}

// WaitClickableLinkText waits until the anchor with the given text is
// visible, returning ErrTargetNotFound when it never appears in time.
func (s *Session) WaitClickableLinkText(ctx context.Context, text string, timeout time.Duration) error {
	return s.wait(ctx, linkTextXPath(text), timeout, chromedp.BySearch)
}

// WaitVisibleClass waits until an element carrying the class is visible,
// returning ErrTargetNotFound when it never appears in time.
func (s *Session) WaitVisibleClass(ctx context.Context, class string, timeout time.Duration) error {
	return s.wait(ctx, "."+class, timeout, chromedp.ByQuery)
}

func (s *Session) wait(ctx context.Context, selector string, timeout time.Duration, by chromedp.QueryOption) error {
	err := s.run(ctx, timeout, chromedp.WaitVisible(selector, by))
	if err == nil {
		return nil
	}
	// The bounded wait expiring means the target is absent; the caller or
	// browser context dying at the same moment means something else ended
	// the wait.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && s.browserCtx.Err() == nil {
		return interfaces.ErrTargetNotFound
	}
	return err
}

// ScrollTop scrolls the page back to the top
func (s *Session) ScrollTop(ctx context.Context) error {
	return s.run(ctx, s.timeout, chromedp.Evaluate(`window.scrollTo(0, 0)`, nil))
}

// CurrentDocument returns the rendered page as raw HTML
func (s *Session) CurrentDocument(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.timeout, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// Close shuts down the browser and its allocator
func (s *Session) Close() error {
	s.browserCancel()
	s.allocCancel()
	return nil
}

func linkTextXPath(text string) string {
	return fmt.Sprintf(`//a[normalize-space(text())='%s']`, text)
}
