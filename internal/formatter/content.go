package formatter

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"animius/internal/source"

	"github.com/samber/lo"
)

var summaryHeader = []string{"Section", "Title", "URL", "Cover", "Latest"}

func summaryRow(section string, s source.Summary) []string {
	return []string{section, s.Title, s.URL, s.Cover, s.Latest}
}

func writeSummaryText(sb *strings.Builder, i int, s source.Summary) {
	fmt.Fprintf(sb, "%d. %s\n   %s\n", i+1, s.Title, s.URL)
	if s.Latest != "" {
		fmt.Fprintf(sb, "   %s\n", s.Latest)
	}
}

func writeSummaryHTML(sb *strings.Builder, s source.Summary) {
	fmt.Fprintf(sb, "  <li><a href=\"%s\">%s</a>", html.EscapeString(s.URL), html.EscapeString(s.Title))
	if s.Latest != "" {
		fmt.Fprintf(sb, " <em>%s</em>", html.EscapeString(s.Latest))
	}
	sb.WriteString("</li>\n")
}

// HomeContent renders the landing page sections of one source.
type HomeContent struct {
	Source   string
	Sections []source.HomeSection
}

func (c *HomeContent) ToText() (string, error) {
	var sb strings.Builder
	for _, sec := range c.Sections {
		fmt.Fprintf(&sb, "== %s ==\n", sec.Title)
		for i, s := range sec.Items {
			writeSummaryText(&sb, i, s)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (c *HomeContent) ToHTML() (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(c.Source))
	for _, sec := range c.Sections {
		fmt.Fprintf(&sb, "<h2>%s</h2>\n<ol>\n", html.EscapeString(sec.Title))
		for _, s := range sec.Items {
			writeSummaryHTML(&sb, s)
		}
		sb.WriteString("</ol>\n")
	}
	return sb.String(), nil
}

func (c *HomeContent) ToMarkdown() (string, error) { return markdownOf(c) }

func (c *HomeContent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Source   string               `json:"source"`
		Sections []source.HomeSection `json:"sections"`
	}{c.Source, c.Sections}, "", "  ")
}

func (c *HomeContent) ToCSV() (string, error) {
	var rows [][]string
	for _, sec := range c.Sections {
		for _, s := range sec.Items {
			rows = append(rows, summaryRow(sec.Title, s))
		}
	}
	return writeCSV(summaryHeader, rows)
}

// WeekContent renders a weekly schedule.
type WeekContent struct {
	Source string
	Week   source.WeekSchedule
}

func (c *WeekContent) days() []int {
	days := lo.Keys(c.Week)
	sort.Ints(days)
	return days
}

func (c *WeekContent) ToText() (string, error) {
	var sb strings.Builder
	for _, d := range c.days() {
		fmt.Fprintf(&sb, "== Day %d ==\n", d)
		for i, s := range c.Week[d] {
			writeSummaryText(&sb, i, s)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (c *WeekContent) ToHTML() (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(c.Source))
	for _, d := range c.days() {
		fmt.Fprintf(&sb, "<h2>Day %d</h2>\n<ol>\n", d)
		for _, s := range c.Week[d] {
			writeSummaryHTML(&sb, s)
		}
		sb.WriteString("</ol>\n")
	}
	return sb.String(), nil
}

func (c *WeekContent) ToMarkdown() (string, error) { return markdownOf(c) }

func (c *WeekContent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Source string              `json:"source"`
		Week   source.WeekSchedule `json:"week"`
	}{c.Source, c.Week}, "", "  ")
}

func (c *WeekContent) ToCSV() (string, error) {
	var rows [][]string
	for _, d := range c.days() {
		for _, s := range c.Week[d] {
			rows = append(rows, summaryRow(strconv.Itoa(d), s))
		}
	}
	return writeCSV(summaryHeader, rows)
}

// SearchContent renders search results, grouped by source when several
// sources were queried.
type SearchContent struct {
	Query   string
	Page    int
	Results map[string][]source.Summary
	Errors  map[string]string
}

func (c *SearchContent) sources() []string {
	names := lo.Uniq(append(lo.Keys(c.Results), lo.Keys(c.Errors)...))
	sort.Strings(names)
	return names
}

func (c *SearchContent) ToText() (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search: %s (page %d)\n\n", c.Query, c.Page)
	for _, name := range c.sources() {
		fmt.Fprintf(&sb, "== %s ==\n", name)
		if msg, ok := c.Errors[name]; ok {
			fmt.Fprintf(&sb, "   error: %s\n\n", msg)
			continue
		}
		items := c.Results[name]
		if len(items) == 0 {
			sb.WriteString("   no results\n")
		}
		for i, s := range items {
			writeSummaryText(&sb, i, s)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (c *SearchContent) ToHTML() (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h1>Search: %s</h1>\n", html.EscapeString(c.Query))
	for _, name := range c.sources() {
		fmt.Fprintf(&sb, "<h2>%s</h2>\n", html.EscapeString(name))
		if msg, ok := c.Errors[name]; ok {
			fmt.Fprintf(&sb, "<p>error: %s</p>\n", html.EscapeString(msg))
			continue
		}
		sb.WriteString("<ol>\n")
		for _, s := range c.Results[name] {
			writeSummaryHTML(&sb, s)
		}
		sb.WriteString("</ol>\n")
	}
	return sb.String(), nil
}

func (c *SearchContent) ToMarkdown() (string, error) { return markdownOf(c) }

func (c *SearchContent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Query   string                      `json:"query"`
		Page    int                         `json:"page"`
		Results map[string][]source.Summary `json:"results"`
		Errors  map[string]string           `json:"errors,omitempty"`
	}{c.Query, c.Page, c.Results, c.Errors}, "", "  ")
}

func (c *SearchContent) ToCSV() (string, error) {
	var rows [][]string
	for _, name := range c.sources() {
		for _, s := range c.Results[name] {
			rows = append(rows, summaryRow(name, s))
		}
	}
	return writeCSV(summaryHeader, rows)
}

// DetailContent renders a title page.
type DetailContent struct {
	Source string
	URL    string
	Detail *source.Detail
}

func (c *DetailContent) channels() []int {
	idx := lo.Keys(c.Detail.Channels)
	sort.Ints(idx)
	return idx
}

func (c *DetailContent) ToText() (string, error) {
	d := c.Detail
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n\n", d.Title, c.URL)
	if len(d.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(d.Tags, ", "))
	}
	if d.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", d.Description)
	}
	for _, ch := range c.channels() {
		fmt.Fprintf(&sb, "\n== Channel %d ==\n", ch+1)
		for _, ep := range d.Channels[ch] {
			fmt.Fprintf(&sb, "  %s\t%s\n", ep.Name, ep.URL)
		}
	}
	if len(d.Related) > 0 {
		sb.WriteString("\n== Related ==\n")
		for i, s := range d.Related {
			writeSummaryText(&sb, i, s)
		}
	}
	return sb.String(), nil
}

func (c *DetailContent) ToHTML() (string, error) {
	d := c.Detail
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(d.Title))
	fmt.Fprintf(&sb, "<img src=\"%s\" alt=\"cover\">\n", html.EscapeString(d.Cover))
	if len(d.Tags) > 0 {
		fmt.Fprintf(&sb, "<p><strong>Tags:</strong> %s</p>\n", html.EscapeString(strings.Join(d.Tags, ", ")))
	}
	if d.Description != "" {
		fmt.Fprintf(&sb, "<p>%s</p>\n", html.EscapeString(d.Description))
	}
	for _, ch := range c.channels() {
		fmt.Fprintf(&sb, "<h2>Channel %d</h2>\n<ul>\n", ch+1)
		for _, ep := range d.Channels[ch] {
			fmt.Fprintf(&sb, "  <li><a href=\"%s\">%s</a></li>\n", html.EscapeString(ep.URL), html.EscapeString(ep.Name))
		}
		sb.WriteString("</ul>\n")
	}
	if len(d.Related) > 0 {
		sb.WriteString("<h2>Related</h2>\n<ol>\n")
		for _, s := range d.Related {
			writeSummaryHTML(&sb, s)
		}
		sb.WriteString("</ol>\n")
	}
	return sb.String(), nil
}

func (c *DetailContent) ToMarkdown() (string, error) { return markdownOf(c) }

func (c *DetailContent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Source string `json:"source"`
		URL    string `json:"url"`
		*source.Detail
	}{c.Source, c.URL, c.Detail}, "", "  ")
}

// ToCSV lists the episodes, one row per channel entry.
func (c *DetailContent) ToCSV() (string, error) {
	var rows [][]string
	for _, ch := range c.channels() {
		for _, ep := range c.Detail.Channels[ch] {
			rows = append(rows, []string{strconv.Itoa(ch), ep.Name, ep.URL})
		}
	}
	return writeCSV([]string{"Channel", "Episode", "URL"}, rows)
}

// PlaybackContent renders a resolved stream.
type PlaybackContent struct {
	Source   string
	Episode  string
	Playback *source.Playback
}

func (c *PlaybackContent) headerKeys() []string {
	keys := lo.Keys(c.Playback.Headers)
	sort.Strings(keys)
	return keys
}

func (c *PlaybackContent) ToText() (string, error) {
	var sb strings.Builder
	sb.WriteString(c.Playback.URL + "\n")
	for _, k := range c.headerKeys() {
		fmt.Fprintf(&sb, "%s: %s\n", k, c.Playback.Headers[k])
	}
	return sb.String(), nil
}

func (c *PlaybackContent) ToHTML() (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<p><a href=\"%s\">%s</a></p>\n", html.EscapeString(c.Playback.URL), html.EscapeString(c.Playback.URL))
	if len(c.Playback.Headers) > 0 {
		sb.WriteString("<ul>\n")
		for _, k := range c.headerKeys() {
			fmt.Fprintf(&sb, "  <li><code>%s: %s</code></li>\n", html.EscapeString(k), html.EscapeString(c.Playback.Headers[k]))
		}
		sb.WriteString("</ul>\n")
	}
	return sb.String(), nil
}

func (c *PlaybackContent) ToMarkdown() (string, error) { return markdownOf(c) }

func (c *PlaybackContent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Source  string `json:"source"`
		Episode string `json:"episode"`
		*source.Playback
	}{c.Source, c.Episode, c.Playback}, "", "  ")
}

func (c *PlaybackContent) ToCSV() (string, error) {
	rows := [][]string{{c.Playback.URL, "", ""}}
	for _, k := range c.headerKeys() {
		rows = append(rows, []string{c.Playback.URL, k, c.Playback.Headers[k]})
	}
	return writeCSV([]string{"URL", "Header", "Value"}, rows)
}

// SourcesContent lists the registered sources and their base URLs.
type SourcesContent struct {
	Bases map[string]string
}

func (c *SourcesContent) names() []string {
	names := lo.Keys(c.Bases)
	sort.Strings(names)
	return names
}

func (c *SourcesContent) ToText() (string, error) {
	var sb strings.Builder
	for _, n := range c.names() {
		fmt.Fprintf(&sb, "%-10s %s\n", n, c.Bases[n])
	}
	return sb.String(), nil
}

func (c *SourcesContent) ToHTML() (string, error) {
	var sb strings.Builder
	sb.WriteString("<ul>\n")
	for _, n := range c.names() {
		fmt.Fprintf(&sb, "  <li>%s: <a href=\"%s\">%s</a></li>\n", html.EscapeString(n), html.EscapeString(c.Bases[n]), html.EscapeString(c.Bases[n]))
	}
	sb.WriteString("</ul>\n")
	return sb.String(), nil
}

func (c *SourcesContent) ToMarkdown() (string, error) { return markdownOf(c) }

func (c *SourcesContent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c.Bases, "", "  ")
}

func (c *SourcesContent) ToCSV() (string, error) {
	rows := lo.Map(c.names(), func(n string, _ int) []string { return []string{n, c.Bases[n]} })
	return writeCSV([]string{"Source", "BaseURL"}, rows)
}
