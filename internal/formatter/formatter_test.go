package formatter

import (
	"encoding/json"
	"strings"
	"testing"

	"animius/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHome() *HomeContent {
	return &HomeContent{
		Source: "agedm",
		Sections: []source.HomeSection{{
			Title: "Latest",
			Items: []source.Summary{
				{Title: "One", URL: "https://site.test/v/1", Latest: "EP 3"},
				{Title: "A & B", URL: "https://site.test/v/2"},
			},
		}},
	}
}

func TestFormatDispatch(t *testing.T) {
	c := sampleHome()
	for _, f := range Formats {
		out, err := Format(c, f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, out, f)
	}

	_, err := Format(c, "yaml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestHomeContent(t *testing.T) {
	c := sampleHome()

	text, err := c.ToText()
	require.NoError(t, err)
	assert.Contains(t, text, "== Latest ==")
	assert.Contains(t, text, "1. One\n   https://site.test/v/1\n   EP 3\n")

	html, err := c.ToHTML()
	require.NoError(t, err)
	assert.Contains(t, html, "A &amp; B")

	md, err := c.ToMarkdown()
	require.NoError(t, err)
	assert.Contains(t, md, "[One](https://site.test/v/1)")

	csvOut, err := c.ToCSV()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csvOut), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Section,Title,URL,Cover,Latest", lines[0])
	assert.Equal(t, "Latest,One,https://site.test/v/1,,EP 3", lines[1])
}

func TestWeekContentOrdersDays(t *testing.T) {
	w := source.NewWeekSchedule()
	w[3] = []source.Summary{{Title: "Wed", URL: "/w"}}
	w[0] = []source.Summary{{Title: "Sun", URL: "/s"}}
	c := &WeekContent{Source: "agedm", Week: w}

	text, err := c.ToText()
	require.NoError(t, err)
	assert.Less(t, strings.Index(text, "Day 0"), strings.Index(text, "Day 3"))
	assert.Less(t, strings.Index(text, "Sun"), strings.Index(text, "Wed"))

	raw, err := c.ToJSON()
	require.NoError(t, err)
	var decoded struct {
		Week map[string][]source.Summary `json:"week"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded.Week, source.DaysInWeek)
}

func TestSearchContentReportsFailures(t *testing.T) {
	c := &SearchContent{
		Query:   "frieren",
		Page:    1,
		Results: map[string][]source.Summary{"agedm": {{Title: "Frieren", URL: "/d/1"}}, "xifan": {}},
		Errors:  map[string]string{"nyafun": "fetch https://nyafun.test/: status 503"},
	}

	text, err := c.ToText()
	require.NoError(t, err)
	assert.Contains(t, text, "== nyafun ==\n   error: fetch https://nyafun.test/: status 503")
	assert.Contains(t, text, "== xifan ==\n   no results")
	assert.Less(t, strings.Index(text, "agedm"), strings.Index(text, "nyafun"))

	csvOut, err := c.ToCSV()
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(csvOut, "\n"))
}

func TestDetailContent(t *testing.T) {
	c := &DetailContent{
		Source: "agedm",
		URL:    "https://site.test/d/1",
		Detail: &source.Detail{
			Title:    "Frieren",
			Cover:    "https://img.test/f.jpg",
			Tags:     []string{"Fantasy"},
			Channels: map[int][]source.EpisodeRef{1: {{Name: "EP1", URL: "/p/2/1"}}, 0: {{Name: "EP1", URL: "/p/1/1"}}},
		},
	}

	raw, err := c.ToJSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Frieren", decoded["title"])
	assert.Equal(t, "https://site.test/d/1", decoded["url"])

	csvOut, err := c.ToCSV()
	require.NoError(t, err)
	assert.Equal(t, "Channel,Episode,URL\n0,EP1,/p/1/1\n1,EP1,/p/2/1\n", csvOut)
}

func TestPlaybackContent(t *testing.T) {
	c := &PlaybackContent{
		Source:  "nyafun",
		Episode: "/play/1-1-1.html",
		Playback: &source.Playback{
			URL:     "https://cdn.test/v.m3u8?verify=1",
			Headers: map[string]string{"Referer": "https://play.test/", "Origin": "https://play.test"},
		},
	}

	text, err := c.ToText()
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/v.m3u8?verify=1\nOrigin: https://play.test\nReferer: https://play.test/\n", text)

	raw, err := c.ToJSON()
	require.NoError(t, err)
	var pb source.Playback
	require.NoError(t, json.Unmarshal(raw, &pb))
	assert.Equal(t, *c.Playback, pb)
}

func TestSourcesContent(t *testing.T) {
	c := &SourcesContent{Bases: map[string]string{"xifan": "https://dm.xifanacg.com/", "agedm": "https://www.agedm.org/"}}
	text, err := c.ToText()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "agedm"))
}
