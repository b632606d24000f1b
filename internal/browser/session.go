// Package browser provides the Chromium-backed rendering session used by the
// resolver.
package browser

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"animius/internal/resolver"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const stopTimeout = 2 * time.Second

// Session is a resolver.Session holding one tab of a dedicated browser.
type Session struct {
	browser *Browser
	page    *rod.Page
}

// Launcher returns a resolver.Launcher that starts a dedicated browser for
// each session, so two engines never share a rendering context.
func Launcher(cfg Config) resolver.Launcher {
	return func(ctx context.Context) (resolver.Session, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := New(cfg)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			_ = b.Close()
			return nil, err
		}
		page, err := b.NewPage()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		return &Session{browser: b, page: page}, nil
	}
}

// Observe implements resolver.Session.
func (s *Session) Observe(ctx context.Context, nav resolver.Navigation, observe func(string) bool) error {
	page := s.page.Context(ctx)

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return s.fail(ctx, nav.URL, fmt.Errorf("failed to enable network events: %w", err))
	}
	if nav.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: nav.UserAgent}); err != nil {
			return s.fail(ctx, nav.URL, fmt.Errorf("failed to set user agent: %w", err))
		}
	}
	if len(nav.Headers) > 0 {
		headerList := make([]string, 0, len(nav.Headers)*2)
		for k, v := range nav.Headers {
			headerList = append(headerList, k, v)
		}
		// Reset replaces the tab, which drops the override.
		if _, err := page.SetExtraHeaders(headerList); err != nil {
			return s.fail(ctx, nav.URL, fmt.Errorf("failed to set headers: %w", err))
		}
	}
	_, _ = page.EvalOnNewDocument(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`)

	// Subscribe before navigating so the document request and anything the
	// first scripts fire are seen.
	var hit atomic.Bool
	wait := page.EachEvent(func(e *proto.NetworkRequestWillBeSent) bool {
		if observe(e.Request.URL) {
			hit.Store(true)
			return true
		}
		return false
	})
	watched := make(chan struct{})
	go func() {
		wait()
		close(watched)
	}()

	navigated := make(chan error, 1)
	go func() {
		navigated <- page.Navigate(nav.URL)
	}()

	for {
		select {
		case <-watched:
			s.stopLoading()
			if hit.Load() {
				return nil
			}
			return ctx.Err()
		case err := <-navigated:
			navigated = nil
			if err == nil {
				continue
			}
			if hit.Load() {
				s.stopLoading()
				return nil
			}
			if ctx.Err() != nil {
				s.stopLoading()
				return ctx.Err()
			}
			s.stopLoading()
			return &resolver.NavigationError{URL: nav.URL, Err: err}
		case <-ctx.Done():
			s.stopLoading()
			return ctx.Err()
		}
	}
}

// fail reports setup errors, preferring ctx's own error when it ended first.
func (s *Session) fail(ctx context.Context, url string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &resolver.NavigationError{URL: url, Err: err}
}

// stopLoading cancels any in-flight load on the live tab. The tab's own
// context is used because the observing context may already be done.
func (s *Session) stopLoading() {
	_ = s.page.Timeout(stopTimeout).StopLoading()
}

// Reset implements resolver.Session by swapping in a fresh blank tab.
func (s *Session) Reset(ctx context.Context) error {
	page, err := s.browser.NewPage()
	if err != nil {
		return err
	}
	old := s.page
	s.page = page
	if err := old.Context(ctx).Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}

// Close implements resolver.Session.
func (s *Session) Close() error {
	return s.browser.Close()
}
