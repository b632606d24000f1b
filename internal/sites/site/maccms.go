package site

import "animius/internal/markup"

// MacCMS returns the listing and detail rules shared by sites built on the
// common MacCMS video theme. Callers fill in channels and playback.
func MacCMS(name, domain string) Profile {
	item := ItemRules{
		Title:  markup.Text("div.public-list-button > a"),
		URL:    markup.Attr("a", "href"),
		Cover:  markup.Attr("img", "data-src"),
		Latest: markup.Text("span.public-list-prb"),
	}

	return Profile{
		Name:          name,
		DefaultDomain: domain,
		Home: HomeRules{
			Sections: "div.box-width.wow",
			// The leading blocks are banners and rankings.
			TakeLast: 2,
			Title:    markup.Text("h4"),
			More:     markup.Attr("a", "href"),
			Items:    "div.public-list-box",
			Item:     item,
		},
		Week: WeekRules{
			Days:  "div#week-module-box div.public-r",
			Items: "div.public-list-box",
			Item:  item,
		},
		Search: SearchRules{
			Path:    "search/wd/{query}/page/{page}.html",
			Results: "div.vod-detail",
			Item: ItemRules{
				Title: markup.Text("div.detail-info > a"),
				URL:   markup.Attr("div.detail-info > a", "href"),
				Cover: markup.Attr("img", "data-src"),
			},
		},
		Detail: DetailRules{
			Title:       markup.Text("div.detail-info h3"),
			Cover:       markup.Attr("div.detail-pic > img", "data-src"),
			Description: markup.Text("div#height_limit"),
			TagNodes:    "div.detail-info span.slide-info-remarks",
			Related:     "div.box-width.wow div.public-list-box",
			RelatedItem: item,
		},
	}
}
