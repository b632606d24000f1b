// Package agedm registers the AGE anime site.
package agedm

import (
	"animius/internal/markup"
	"animius/internal/sites/site"
	"animius/internal/source"
)

const Name = "agedm"

func init() {
	source.Register(Name, site.Factory(Profile))
}

var item = site.ItemRules{
	Title:  markup.Text("a"),
	URL:    markup.Attr("a", "href"),
	Cover:  markup.Attr("img", "data-original"),
	Latest: markup.Text("span.video_item--info"),
}

// Profile describes www.agedm.org. The episode page embeds the real player in
// #iframeForVideo, so the frame is rendered instead of the episode page.
var Profile = site.Profile{
	Name:          Name,
	DefaultDomain: "https://www.agedm.org",

	Home: site.HomeRules{
		Sections: "div.container div.video_list_box",
		Title:    markup.Rule{Query: "h6", Strip: []string{"更多 »"}},
		More:     markup.Attr("a", "href"),
		Items:    "div.video_item",
		Item:     item,
	},
	Week: site.WeekRules{
		Days:  "div.text_list_box div.tab-pane",
		Items: "li",
		Item: site.ItemRules{
			Title:  markup.Text("a"),
			URL:    markup.Attr("a", "href"),
			Latest: markup.Text("div.title_sub"),
		},
	},
	Search: site.SearchRules{
		Path:    "search?query={query}&page={page}",
		Results: "div.card",
		Item: site.ItemRules{
			Title: markup.Text("h5"),
			URL:   markup.Attr("h5 > a", "href"),
			Cover: markup.Attr("img", "data-original"),
		},
	},
	Detail: site.DetailRules{
		Title:       markup.Text("div.video_detail_right h2"),
		Cover:       markup.Attr("div.video_detail_cover > img", "data-original"),
		Description: markup.Text("div.video_detail_right div.video_detail_desc"),
		TagRows:     "div.video_detail_box li",
		TagLabels: []markup.LabelRule{
			{Label: "剧情类型", Split: " ", FallbackRow: 9},
			{Label: "地区", FallbackRow: 0},
			{Label: "动画种类", FallbackRow: 1},
		},
		Channels: "div.tab-content div.tab-pane",
		Episodes: "li",
		Episode: site.EpisodeRules{
			Name: markup.Self(),
			URL:  markup.Attr("a", "href"),
		},
		Related:     "div.video_list_box div.video_item",
		RelatedItem: item,
	},
	Play: site.PlayRules{
		Frame:   markup.Attr("#iframeForVideo", "src"),
		Pattern: `.mp4|.m3u8|video|playurl|hsl|obj|bili`,
	},
}
