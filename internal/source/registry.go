package source

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"animius/internal/resolver"
	"animius/internal/transport"
)

// Deps are the collaborators wired into a freshly opened Source.
type Deps struct {
	Transport      transport.Config
	Launch         resolver.Launcher
	ResolveTimeout time.Duration // overrides the site's own deadline when > 0
	BaseURL        string        // overrides the site's default domain when set
}

// Factory builds a new, independent Source.
type Factory func(Deps) (Source, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register makes a site available under name. Sites call it from init.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = f
}

// Open builds a new Source for name. Each call returns an instance with its
// own engine; callers must Close it.
func Open(name string, deps Deps) (Source, error) {
	mu.RLock()
	f, ok := registry[strings.ToLower(name)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown source: %s", name)
	}

	s, err := f(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", name, err)
	}
	if deps.BaseURL != "" {
		if err := s.SetBaseURL(deps.BaseURL); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Names lists registered sources in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
