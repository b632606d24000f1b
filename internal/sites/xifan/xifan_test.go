package xifan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"animius/internal/resolver/resolvertest"
	"animius/internal/sites/site"
	"animius/internal/source"
	"animius/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailPage = `<html><body>
<div class="detail-pic"><img data-src="https://img.test/kaiju.jpg"></div>
<div class="detail-info"><h3>怪兽8号</h3><span class="slide-info-remarks">连载</span></div>
<div id="height_limit">日比野卡夫卡</div>
<div class="anthology-list top20 select-a">
  <div class="anthology-list-box"><ul>
    <li><a href="/watch/7-1-1.html">第1集</a></li>
    <li><a href="/watch/7-1-2.html">第2集</a></li>
  </ul></div>
  <div class="anthology-list-box"><ul><li><a href="/watch/7-2-1.html">第1集</a></li></ul></div>
</div>
<div class="box-width wow"><div class="public-list-box">
  <div class="public-list-button"><a href="/bangumi/8.html">蓝色监狱</a></div>
</div></div>
</body></html>`

func newTestSource(t *testing.T, sess *resolvertest.Session) *site.Adapter {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/bangumi/7.html", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(detailPage)) })
	mux.HandleFunc("/search/wd/", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<p>没有找到</p>`)) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := transport.DefaultConfig
	cfg.Rate = 0
	deps := source.Deps{Transport: cfg}
	if sess != nil {
		deps.Launch = sess.Launcher()
	}
	a, err := site.New(Profile, deps)
	require.NoError(t, err)
	require.NoError(t, a.SetBaseURL(srv.URL))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestDetailChannels(t *testing.T) {
	d, err := newTestSource(t, nil).Detail(context.Background(), "/bangumi/7.html")
	require.NoError(t, err)
	assert.Equal(t, "怪兽8号", d.Title)
	assert.Equal(t, "日比野卡夫卡", d.Description)
	assert.Equal(t, map[int][]source.EpisodeRef{
		0: {{Name: "第1集", URL: "/watch/7-1-1.html"}, {Name: "第2集", URL: "/watch/7-1-2.html"}},
		1: {{Name: "第1集", URL: "/watch/7-2-1.html"}},
	}, d.Channels)
	require.Len(t, d.Related, 1)
	assert.Equal(t, "蓝色监狱", d.Related[0].Title)
}

func TestSearchNoResults(t *testing.T) {
	items, err := newTestSource(t, nil).Search(context.Background(), "不存在的番", 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestVideoPattern(t *testing.T) {
	sess := &resolvertest.Session{Requests: []string{
		"https://dm.xifanacg.com/static/player/dplayer.js",
		"https://play.xfvod.pro/v/kaiju-01.mp4",
	}}
	pb, err := newTestSource(t, sess).Video(context.Background(), "/watch/7-1-1.html")
	require.NoError(t, err)
	assert.Equal(t, "https://play.xfvod.pro/v/kaiju-01.mp4", pb.URL)
	assert.Empty(t, pb.Headers)
}
