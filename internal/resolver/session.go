package resolver

import (
	"context"
	"errors"
	"fmt"
)

// Navigation describes one page load and the identity it should present.
type Navigation struct {
	URL       string
	UserAgent string            // empty keeps the session default
	Headers   map[string]string // sent with the navigation and its subresources
}

// Session is a single rendering context. An Engine drives it from one
// goroutine only; implementations need not be safe for concurrent use.
type Session interface {
	// Observe attaches a network observer, navigates to nav.URL and reports
	// every outgoing request URL to observe, in the order the page issues
	// them. The observer is attached before navigation starts.
	//
	// It returns nil as soon as observe returns true, ctx.Err() when ctx ends
	// first, or a *NavigationError when the page itself fails to load.
	// Loading is stopped before returning.
	Observe(ctx context.Context, nav Navigation, observe func(url string) bool) error

	// Reset drops page-local state, observers and identity overrides and
	// leaves the context on a blank page.
	Reset(ctx context.Context) error

	// Close releases the rendering context.
	Close() error
}

// Launcher creates a Session. It is called on the engine's worker goroutine
// the first time a resolution needs one.
type Launcher func(ctx context.Context) (Session, error)

var (
	// ErrResolutionTimeout is returned when the deadline elapses before any
	// request matches the pattern.
	ErrResolutionTimeout = errors.New("resolution timed out")

	// ErrEngineClosed is returned for resolutions attempted or pending when
	// the engine is closed.
	ErrEngineClosed = errors.New("resolution engine closed")
)

// NavigationError reports that the rendering context could not load the page,
// e.g. a DNS or connection failure.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
