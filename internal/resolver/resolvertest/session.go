// Package resolvertest provides a scripted rendering session for tests of
// code built on the resolver engine.
package resolvertest

import (
	"context"
	"sync"

	"animius/internal/resolver"
)

// Session replays Requests to the observer on every navigation, then waits
// for the deadline. It never touches a real browser.
type Session struct {
	Requests []string
	// Err, when set, is returned from Observe instead of replaying.
	Err error

	mu       sync.Mutex
	navs     []resolver.Navigation
	launches int
	resets   int
	closes   int
}

func (s *Session) Observe(ctx context.Context, nav resolver.Navigation, observe func(string) bool) error {
	s.mu.Lock()
	s.navs = append(s.navs, nav)
	s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.Requests {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if observe(u) {
			return nil
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *Session) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Launcher hands out s on every launch.
func (s *Session) Launcher() resolver.Launcher {
	return func(ctx context.Context) (resolver.Session, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.launches++
		return s, nil
	}
}

// Navigations returns every navigation seen so far.
func (s *Session) Navigations() []resolver.Navigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]resolver.Navigation(nil), s.navs...)
}

func (s *Session) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}

func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}
