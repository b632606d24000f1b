// Package source defines the contract every site adapter implements and the
// records it returns.
package source

import (
	"context"
)

// DaysInWeek is the number of schedule slots every Week result carries.
const DaysInWeek = 7

// Source is one site backend. All methods are safe for concurrent use.
// Sources share no state with each other.
type Source interface {
	// Name is the registry key, e.g. "agedm".
	Name() string

	// BaseURL returns the current base domain.
	BaseURL() string

	// SetBaseURL overrides the base domain at runtime, for when the upstream
	// domain rotates or is blocked.
	SetBaseURL(raw string) error

	// Home lists the landing page sections in document order. Malformed
	// sections and items are skipped.
	Home(ctx context.Context) ([]HomeSection, error)

	// Week returns the airing schedule with every day index present.
	Week(ctx context.Context) (WeekSchedule, error)

	// Search returns one page of results. No matches is an empty slice.
	Search(ctx context.Context, query string, page int) ([]Summary, error)

	// Detail fetches a title page. Either every required field is present
	// or the call fails.
	Detail(ctx context.Context, detailURL string) (*Detail, error)

	// Video resolves an episode to a playable resource.
	Video(ctx context.Context, episodeURL string) (*Playback, error)

	// Close releases the resolution engine. It is idempotent.
	Close() error
}

// Summary is a catalog entry as it appears in listings.
type Summary struct {
	Title  string `json:"title"`
	Cover  string `json:"cover,omitempty"`
	URL    string `json:"url"`
	Latest string `json:"latest,omitempty"` // latest episode label
}

// HomeSection is one titled block of the landing page.
type HomeSection struct {
	Title   string    `json:"title"`
	MoreURL string    `json:"more_url,omitempty"`
	Items   []Summary `json:"items"`
}

// WeekSchedule maps a day index (0..DaysInWeek-1, in the site's own order)
// to the titles airing that day.
type WeekSchedule map[int][]Summary

// NewWeekSchedule returns a schedule with every day present and empty.
func NewWeekSchedule() WeekSchedule {
	w := make(WeekSchedule, DaysInWeek)
	for i := 0; i < DaysInWeek; i++ {
		w[i] = []Summary{}
	}
	return w
}

// EpisodeRef points at an episode page. URL may be relative to the owning
// source's base URL.
type EpisodeRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Detail is a title page.
type Detail struct {
	Title       string    `json:"title"`
	Cover       string    `json:"cover"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Related     []Summary `json:"related"`
	// Channels maps a 0-based playback channel index, in document order, to
	// its episodes. Several channels mirror the same content.
	Channels map[int][]EpisodeRef `json:"channels"`
}

// Playback is a resolved media resource. Players must send Headers verbatim
// with every request for URL; origins reject requests without them.
type Playback struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}
