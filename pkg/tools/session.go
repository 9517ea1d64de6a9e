package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"browserpilot/pkg/config"
	"browserpilot/pkg/logx"
)

// Session owns one browser instance and its tabs. All actions run against the
// active tab; element references are resolved fresh on every call so a page
// mutation between calls can never leave an action holding a stale handle.
type Session struct {
	logger        *logx.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	actionTimeout time.Duration

	mu        sync.Mutex
	tabCtx    context.Context
	tabCancel context.CancelFunc
}

// NewSession launches a browser (or attaches to a running one when a CDP
// endpoint is configured) and opens the initial tab.
func NewSession(ctx context.Context, cfg config.BrowserConfig) (*Session, error) {
	s := &Session{
		logger:        logx.NewLogger("browser"),
		actionTimeout: cfg.ActionTimeout,
	}
	if s.actionTimeout <= 0 {
		s.actionTimeout = config.DefaultActionTimeout
	}

	var allocCtx context.Context
	if cfg.CDPEndpoint != "" {
		allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.CDPEndpoint)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
		)
		allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}

	s.browserCtx, s.browserCancel = chromedp.NewContext(allocCtx)
	// Force browser startup so failures surface here, not on the first action.
	if err := chromedp.Run(s.browserCtx); err != nil {
		s.allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	s.tabCtx = s.browserCtx
	s.tabCancel = s.browserCancel
	return s, nil
}

// Close shuts down all tabs and the browser.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tabCancel != nil && !sameContext(s.tabCtx, s.browserCtx) {
		s.tabCancel()
	}
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

func sameContext(a, b context.Context) bool { return a == b }

// run executes actions against the active tab with the per-action timeout.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	tab := s.tabCtx
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(tab, s.actionTimeout)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return fmt.Errorf("action timed out after %s: %w", s.actionTimeout, err)
	}
	return err
}

// Navigate loads a URL in the active tab and waits for the document to load.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("navigating to %s", url)
	return s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

// Click clicks the first element matching selector. With js=true the click is
// dispatched through JavaScript, bypassing viewport hit-testing.
func (s *Session) Click(ctx context.Context, selector string, js bool) error {
	if js {
		expr := fmt.Sprintf("document.querySelector(%q).click()", selector)
		return s.run(ctx, chromedp.Evaluate(expr, nil))
	}
	return s.run(ctx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

// Type sends text to the element matching selector, clearing it first.
func (s *Session) Type(ctx context.Context, selector, text string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

// ExtractText returns the visible text of the element matching selector, or
// the whole document body when selector is empty.
func (s *Session) ExtractText(ctx context.Context, selector string) (string, error) {
	if selector == "" {
		selector = "body"
	}
	var text string
	if err := s.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Scroll scrolls the page by one viewport in the given direction ("up"/"down").
func (s *Session) Scroll(ctx context.Context, direction string) error {
	delta := "window.innerHeight"
	if direction == "up" {
		delta = "-window.innerHeight"
	}
	return s.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %s)", delta), nil))
}

// WaitForLoad blocks until the document is ready or the action times out.
func (s *Session) WaitForLoad(ctx context.Context) error {
	return s.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
}

// CloseModal dismisses the topmost overlay by sending Escape, then removes
// any still-visible element matching the optional selector.
func (s *Session) CloseModal(ctx context.Context, selector string) error {
	actions := []chromedp.Action{chromedp.KeyEvent(kb.Escape)}
	if selector != "" {
		expr := fmt.Sprintf("document.querySelectorAll(%q).forEach(el => el.remove())", selector)
		actions = append(actions, chromedp.Evaluate(expr, nil))
	}
	return s.run(ctx, actions...)
}

// RemoveElement deletes all elements matching selector from the DOM.
func (s *Session) RemoveElement(ctx context.Context, selector string) (int, error) {
	var removed int
	expr := fmt.Sprintf(
		"(() => { const els = document.querySelectorAll(%q); els.forEach(el => el.remove()); return els.length; })()",
		selector)
	if err := s.run(ctx, chromedp.Evaluate(expr, &removed)); err != nil {
		return 0, err
	}
	return removed, nil
}

// SubmitForm submits the form containing (or matching) selector.
func (s *Session) SubmitForm(ctx context.Context, selector string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Submit(selector, chromedp.ByQuery),
	)
}

// TabInfo describes one open page target.
type TabInfo struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Tabs lists all open page targets.
func (s *Session) Tabs(ctx context.Context) ([]TabInfo, error) {
	s.mu.Lock()
	tab := s.tabCtx
	s.mu.Unlock()

	infos, err := chromedp.Targets(tab)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	activeID := activeTargetID(tab)
	tabs := make([]TabInfo, 0, len(infos))
	for _, info := range infos {
		if info.Type != "page" {
			continue
		}
		tabs = append(tabs, TabInfo{
			ID:     string(info.TargetID),
			Title:  info.Title,
			URL:    info.URL,
			Active: string(info.TargetID) == activeID,
		})
	}
	return tabs, nil
}

// NewTab opens a new blank tab and makes it active.
func (s *Session) NewTab(ctx context.Context) (TabInfo, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return TabInfo{}, fmt.Errorf("failed to open tab: %w", err)
	}

	// The previous tab stays open; only our attachment handle moves.
	s.mu.Lock()
	s.tabCtx = tabCtx
	s.tabCancel = tabCancel
	s.mu.Unlock()

	return TabInfo{ID: activeTargetID(tabCtx), URL: "about:blank", Active: true}, nil
}

// SelectTab makes the target with the given ID the active tab.
func (s *Session) SelectTab(ctx context.Context, id string) error {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(target.ID(id)))
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return fmt.Errorf("failed to attach to tab %s: %w", id, err)
	}

	s.mu.Lock()
	s.tabCtx = tabCtx
	s.tabCancel = tabCancel
	s.mu.Unlock()
	return nil
}

// CurrentURL returns the active tab's URL.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func activeTargetID(tabCtx context.Context) string {
	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		return string(c.Target.TargetID)
	}
	return ""
}
