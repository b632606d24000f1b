// Package site implements source.Source once, driven by a per-site Profile.
// Adding a site means writing a Profile, not a new code path.
package site

import (
	"time"

	"animius/internal/markup"
)

// Profile is everything that differs between two sites.
type Profile struct {
	Name          string
	DefaultDomain string
	// Headers accompany every document fetch.
	Headers map[string]string

	Home   HomeRules
	Week   WeekRules
	Search SearchRules
	Detail DetailRules
	Play   PlayRules
}

// ItemRules read one catalog entry, relative to its node.
type ItemRules struct {
	Title  markup.Rule
	URL    markup.Rule
	Cover  markup.Rule
	Latest markup.Rule
}

// HomeRules read the landing page.
type HomeRules struct {
	Sections string // one node per section
	// TakeLast keeps only the last N sections; zero keeps all.
	TakeLast int
	Title    markup.Rule
	More     markup.Rule
	Items    string // item nodes within a section
	Item     ItemRules
}

// WeekRules read the airing schedule from the landing page.
type WeekRules struct {
	Days string // one node per day; document position is the day index
	// DayIndex, when set, reads an explicit index from the day node instead.
	DayIndex markup.Rule
	Items    string
	Item     ItemRules
}

// SearchRules build the search URL and read its results.
type SearchRules struct {
	// Path is resolved against the base URL after {query} and {page} are
	// substituted.
	Path    string
	Results string
	Item    ItemRules
}

// EpisodeRules read one episode link.
type EpisodeRules struct {
	Name markup.Rule
	URL  markup.Rule
}

// DetailRules read a title page. Title and Cover are required.
type DetailRules struct {
	Title       markup.Rule
	Cover       markup.Rule
	Description markup.Rule

	// TagNodes yields one tag per matching node.
	TagNodes string
	// TagRows and TagLabels read tags out of "label：value" rows.
	TagRows   string
	TagLabels []markup.LabelRule

	// Channels yields one node per playback channel, in document order.
	Channels string
	// SingleChannel gathers every episode under Channels into channel 0.
	SingleChannel bool
	Episodes      string // episode nodes within a channel
	Episode       EpisodeRules

	Related     string
	RelatedItem ItemRules
}

// PlayRules drive stream resolution.
type PlayRules struct {
	// Frame, when set, is read from the fetched episode page and names the
	// player page to render instead of the episode page itself.
	Frame markup.Rule
	// Pattern recognizes the media request among all page traffic.
	Pattern   string
	UserAgent string
	// NavigationHeaders are sent while rendering and returned with the result.
	NavigationHeaders map[string]string
	// PlaybackHeaders are only returned; the player must send them.
	PlaybackHeaders map[string]string
	Timeout         time.Duration
}
