package source

import (
	"animius/internal/markup"
	"animius/internal/resolver"
	"animius/internal/transport"
)

// The failure taxonomy callers match on with errors.Is and errors.As.
type (
	FetchError      = transport.FetchError
	ExtractionError = markup.ExtractionError
	NavigationError = resolver.NavigationError
)

var (
	ErrResolutionTimeout = resolver.ErrResolutionTimeout
	ErrEngineClosed      = resolver.ErrEngineClosed
)
