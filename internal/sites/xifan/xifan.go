// Package xifan registers the Xifan ACG site.
package xifan

import (
	"time"

	"animius/internal/markup"
	"animius/internal/sites/site"
	"animius/internal/source"
)

const Name = "xifan"

func init() {
	source.Register(Name, site.Factory(Profile))
}

// Profile describes dm.xifanacg.com. Each mirror gets its own tab of episodes,
// and the player takes a while to pick a line, hence the longer deadline.
var Profile = func() site.Profile {
	p := site.MacCMS(Name, "https://dm.xifanacg.com/")
	p.Detail.Channels = "div.anthology-list.top20.select-a > div.anthology-list-box"
	p.Detail.Episodes = "li a"
	p.Detail.Episode = site.EpisodeRules{
		Name: markup.Self(),
		URL:  markup.Attr("", "href"),
	}
	p.Play = site.PlayRules{
		Pattern:   `.*download\?fid=|.*\.mp4\?|.*\.m3u8|^https://play.xfvod.pro/.*\.mp4|^https://apn.moedot.net/.*\.mp4`,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36",
		Timeout:   20 * time.Second,
	}
	return p
}()
