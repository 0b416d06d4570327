// Package browser wraps a single headless Chromium session via Rod. The
// harvest loop owns the session exclusively for its whole lifetime; Close
// runs on every exit path.
package browser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/yorumly/reviewstalk/internal/config"
	"github.com/yorumly/reviewstalk/internal/types"
)

// Session drives one browser with one page. Navigation is strictly
// sequential; there is no page pool because nothing runs concurrently.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     *config.Browser
	logger  *slog.Logger
}

// NewSession launches a Chromium instance and opens its single page.
// A launch or connect failure is fatal to the run.
func NewSession(cfg *config.Browser, logger *slog.Logger) (*Session, error) {
	s := &Session{
		cfg:    cfg,
		logger: logger.With("component", "browser_session"),
	}

	launchURL, err := s.launch()
	if err != nil {
		return nil, &types.SetupError{Component: "browser", Err: fmt.Errorf("launch: %w", err)}
	}

	b := rod.New().ControlURL(launchURL)
	if err := b.Connect(); err != nil {
		return nil, &types.SetupError{Component: "browser", Err: fmt.Errorf("connect: %w", err)}
	}
	s.browser = b

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = b.Close()
		return nil, &types.SetupError{Component: "browser", Err: fmt.Errorf("open page: %w", err)}
	}
	s.page = page

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			s.logger.Warn("failed to set user agent", "error", err)
		}
	}

	s.logger.Info("browser session ready", "headless", cfg.Headless, "stealth", cfg.Stealth)
	return s, nil
}

// launch starts Chromium with the usual automation-hardening flags.
func (s *Session) launch() (string, error) {
	l := launcher.New().
		Headless(s.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-web-security").
		Set("disable-extensions").
		Set("disable-blink-features", "AutomationControlled")

	if s.cfg.WindowSize != "" {
		l = l.Set("window-size", s.cfg.WindowSize)
	}

	return l.Launch()
}

// Navigate loads a URL with a bounded timeout and lets the page settle.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.cfg.PageLoadTimeout
	}

	if err := s.page.Timeout(timeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	// Stability timeout is advisory: slow trackers keep some storefronts
	// "unstable" long after the reviews have rendered.
	if err := s.page.Timeout(timeout).WaitStable(300 * time.Millisecond); err != nil {
		s.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}
	return nil
}

// WaitVisible polls for an element with a bounded timeout. A miss is not
// fatal; the caller decides whether to extract anyway.
func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	if selector == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = s.cfg.WaitTimeout
	}
	el, err := s.page.Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("wait visible %q: %w", selector, err)
	}
	return nil
}

// Scroll performs n incremental scroll passes with a delay between each,
// triggering lazily rendered content.
func (s *Session) Scroll(passes int, step int, delay time.Duration) {
	if step <= 0 {
		step = 500
	}
	for i := 0; i < passes; i++ {
		if _, err := s.page.Eval(fmt.Sprintf("() => window.scrollBy(0, %d)", step)); err != nil {
			s.logger.Warn("scroll eval failed", "pass", i, "error", err)
			return
		}
		time.Sleep(delay)
	}
}

// Document snapshots the rendered DOM as a goquery document.
func (s *Session) Document() (*goquery.Document, error) {
	html, err := s.page.HTML()
	if err != nil {
		return nil, fmt.Errorf("page html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// HTML returns the raw rendered markup.
func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

// Close tears the browser down. Safe to call exactly once from a defer.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			return fmt.Errorf("close browser: %w", err)
		}
	}
	s.logger.Info("browser session closed")
	return nil
}
