// Package nyafun registers the Nyafun anime site.
package nyafun

import (
	"animius/internal/markup"
	"animius/internal/sites/site"
	"animius/internal/source"
)

const Name = "nyafun"

func init() {
	source.Register(Name, site.Factory(Profile))
}

// Profile describes www.nyadm.org. All episodes sit in one list; the media
// host only serves requests that carry the player's Referer.
var Profile = func() site.Profile {
	p := site.MacCMS(Name, "https://www.nyadm.org/")
	p.Detail.Channels = "div.anthology-list.top20"
	p.Detail.SingleChannel = true
	p.Detail.Episodes = "li"
	p.Detail.Episode = site.EpisodeRules{
		Name: markup.Self(),
		URL:  markup.Attr("a", "href"),
	}
	p.Play = site.PlayRules{
		Pattern:         `.*\.(mp4|mkv|m3u8).*\?verify=.*`,
		UserAgent:       "Mozilla/5.0 (iPhone; CPU iPhone OS 18_0 like Mac OS X)",
		PlaybackHeaders: map[string]string{"Referer": "https://play.nyadm.org/"},
	}
	return p
}()
