package site

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"animius/internal/log"
	"animius/internal/markup"
	"animius/internal/resolver"
	"animius/internal/source"
	"animius/internal/transport"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Adapter is a source.Source configured by a Profile.
type Adapter struct {
	profile        Profile
	pattern        *regexp.Regexp
	client         *transport.Client
	launch         resolver.Launcher
	resolveTimeout time.Duration

	mu     sync.Mutex
	base   *url.URL
	engine *resolver.Engine
	closed bool
}

var _ source.Source = (*Adapter)(nil)

// Factory adapts a Profile into a source.Factory for the registry.
func Factory(p Profile) source.Factory {
	return func(deps source.Deps) (source.Source, error) {
		return New(p, deps)
	}
}

// New builds an adapter. The resolution engine is created on the first Video
// call, not here.
func New(p Profile, deps source.Deps) (*Adapter, error) {
	pattern, err := regexp.Compile(p.Play.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid media pattern for %s: %w", p.Name, err)
	}

	timeout := p.Play.Timeout
	if deps.ResolveTimeout > 0 {
		timeout = deps.ResolveTimeout
	}

	a := &Adapter{
		profile:        p,
		pattern:        pattern,
		client:         transport.New(deps.Transport),
		launch:         deps.Launch,
		resolveTimeout: timeout,
	}
	if err := a.SetBaseURL(p.DefaultDomain); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Adapter) Name() string { return a.profile.Name }

func (a *Adapter) BaseURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.base.String()
}

func (a *Adapter) SetBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base URL %q: want an absolute http(s) URL", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	a.mu.Lock()
	a.base = u
	a.mu.Unlock()
	return nil
}

// resolve turns a possibly relative reference into an absolute URL against
// the current base.
func (a *Adapter) resolve(ref string) (string, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	a.mu.Lock()
	base := a.base
	a.mu.Unlock()
	return base.ResolveReference(r).String(), nil
}

func (a *Adapter) logger() *logrus.Entry {
	return log.WithField("source", a.profile.Name)
}

func (a *Adapter) fetch(ctx context.Context, rawURL string) (*markup.Document, error) {
	a.logger().WithField("url", rawURL).Debug("fetching document")
	text, err := a.client.Fetch(ctx, rawURL, a.profile.Headers)
	if err != nil {
		return nil, err
	}
	return markup.Parse(rawURL, text)
}

func (a *Adapter) Home(ctx context.Context) ([]source.HomeSection, error) {
	rules := a.profile.Home
	doc, err := a.fetch(ctx, a.BaseURL())
	if err != nil {
		return nil, err
	}

	sections, err := doc.Require("home sections", rules.Sections)
	if err != nil {
		return nil, err
	}
	if n := sections.Length(); rules.TakeLast > 0 && n > rules.TakeLast {
		sections = sections.Slice(n-rules.TakeLast, goquery.ToEnd)
	}

	result := make([]source.HomeSection, 0, sections.Length())
	sections.Each(func(i int, s *goquery.Selection) {
		title := rules.Title.Eval(s)
		if title == "" {
			a.logger().Debugf("skipping home section %d without title", i)
			return
		}
		result = append(result, source.HomeSection{
			Title:   title,
			MoreURL: rules.More.Eval(s),
			Items:   a.items(s.Find(rules.Items), rules.Item),
		})
	})
	return result, nil
}

// Week never drops a day: days the page does not list stay empty. When two
// nodes claim the same day their entries are merged in document order.
func (a *Adapter) Week(ctx context.Context) (source.WeekSchedule, error) {
	rules := a.profile.Week
	doc, err := a.fetch(ctx, a.BaseURL())
	if err != nil {
		return nil, err
	}

	days, err := doc.Require("week schedule", rules.Days)
	if err != nil {
		return nil, err
	}

	week := source.NewWeekSchedule()
	days.Each(func(i int, d *goquery.Selection) {
		idx := i
		if !rules.DayIndex.IsZero() {
			raw := rules.DayIndex.Eval(d)
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 || n >= source.DaysInWeek {
				a.logger().Warnf("skipping schedule node %d with day index %q", i, raw)
				return
			}
			idx = n
		} else if i >= source.DaysInWeek {
			a.logger().Warnf("ignoring schedule node %d beyond %d days", i, source.DaysInWeek)
			return
		}
		week[idx] = append(week[idx], a.items(d.Find(rules.Items), rules.Item)...)
	})
	return week, nil
}

func (a *Adapter) Search(ctx context.Context, query string, page int) ([]source.Summary, error) {
	rules := a.profile.Search
	if page < 1 {
		page = 1
	}
	escaped := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	path := strings.NewReplacer("{query}", escaped, "{page}", strconv.Itoa(page)).Replace(rules.Path)

	target, err := a.resolve(path)
	if err != nil {
		return nil, err
	}
	doc, err := a.fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	return a.items(doc.Find(rules.Results), rules.Item), nil
}

func (a *Adapter) Detail(ctx context.Context, detailURL string) (*source.Detail, error) {
	rules := a.profile.Detail
	target, err := a.resolve(detailURL)
	if err != nil {
		return nil, err
	}
	doc, err := a.fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	root := doc.Root()

	d := &source.Detail{
		Title:       rules.Title.Eval(root),
		Cover:       rules.Cover.Eval(root),
		Description: rules.Description.Eval(root),
		Tags:        []string{},
		Channels:    map[int][]source.EpisodeRef{},
	}
	if d.Title == "" {
		return nil, &markup.ExtractionError{URL: target, Field: "title", Query: rules.Title.Query}
	}
	if d.Cover == "" {
		return nil, &markup.ExtractionError{URL: target, Field: "cover", Query: rules.Cover.Query}
	}

	if rules.TagNodes != "" {
		doc.Find(rules.TagNodes).Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				d.Tags = append(d.Tags, t)
			}
		})
	}
	if rules.TagRows != "" {
		rows := doc.Find(rules.TagRows)
		for _, lr := range rules.TagLabels {
			d.Tags = append(d.Tags, lr.Values(rows)...)
		}
	}

	channels := doc.Find(rules.Channels)
	if rules.SingleChannel {
		if channels.Length() > 0 {
			d.Channels[0] = a.episodes(channels.Find(rules.Episodes), rules.Episode)
		}
	} else {
		channels.Each(func(i int, c *goquery.Selection) {
			d.Channels[i] = a.episodes(c.Find(rules.Episodes), rules.Episode)
		})
	}

	d.Related = a.items(doc.Find(rules.Related), rules.RelatedItem)
	return d, nil
}

func (a *Adapter) Video(ctx context.Context, episodeURL string) (*source.Playback, error) {
	rules := a.profile.Play
	eng, err := a.acquireEngine()
	if err != nil {
		return nil, err
	}

	pageURL, err := a.resolve(episodeURL)
	if err != nil {
		return nil, err
	}
	if !rules.Frame.IsZero() {
		doc, err := a.fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		frame := rules.Frame.Eval(doc.Root())
		if frame == "" {
			return nil, &markup.ExtractionError{URL: pageURL, Field: "player frame", Query: rules.Frame.Query}
		}
		if pageURL, err = resolveAgainst(pageURL, frame); err != nil {
			return nil, err
		}
	}

	res, err := eng.Resolve(ctx, resolver.Request{
		PageURL:   pageURL,
		Pattern:   a.pattern,
		UserAgent: rules.UserAgent,
		Headers:   rules.NavigationHeaders,
		Timeout:   a.resolveTimeout,
	})
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	maps.Copy(headers, res.Headers)
	maps.Copy(headers, rules.PlaybackHeaders)
	return &source.Playback{URL: res.URL, Headers: headers}, nil
}

// acquireEngine returns the adapter's engine, creating it on first use.
func (a *Adapter) acquireEngine() (*resolver.Engine, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, resolver.ErrEngineClosed
	}
	if a.launch == nil {
		return nil, errors.New("no rendering backend configured")
	}
	if a.engine == nil {
		a.engine = resolver.New(a.launch,
			resolver.WithName(a.profile.Name),
			resolver.WithDefaultTimeout(a.resolveTimeout),
		)
	}
	return a.engine, nil
}

// Close releases the engine if one was ever created. Later Video calls fail
// with ErrEngineClosed.
func (a *Adapter) Close() error {
	a.mu.Lock()
	a.closed = true
	eng := a.engine
	a.mu.Unlock()

	if eng == nil {
		return nil
	}
	err := eng.Close()
	stats := eng.Stats()
	a.logger().WithFields(logrus.Fields{
		"resolved":  stats.Resolved,
		"timed_out": stats.TimedOut,
		"failed":    stats.Failed,
	}).Debug("resolution engine closed")
	return err
}

// items reads a listing. Entries without a title or URL are dropped rather
// than failing the whole list.
func (a *Adapter) items(nodes *goquery.Selection, rules ItemRules) []source.Summary {
	out := make([]source.Summary, 0, nodes.Length())
	nodes.Each(func(i int, n *goquery.Selection) {
		s := source.Summary{
			Title:  rules.Title.Eval(n),
			URL:    rules.URL.Eval(n),
			Cover:  rules.Cover.Eval(n),
			Latest: rules.Latest.Eval(n),
		}
		if s.Title == "" || s.URL == "" {
			a.logger().Debugf("dropping malformed entry %d (title=%q url=%q)", i, s.Title, s.URL)
			return
		}
		out = append(out, s)
	})
	return out
}

func (a *Adapter) episodes(nodes *goquery.Selection, rules EpisodeRules) []source.EpisodeRef {
	out := make([]source.EpisodeRef, 0, nodes.Length())
	nodes.Each(func(i int, n *goquery.Selection) {
		ep := source.EpisodeRef{Name: rules.Name.Eval(n), URL: rules.URL.Eval(n)}
		if ep.URL == "" {
			a.logger().Debugf("dropping episode %d without link", i)
			return
		}
		out = append(out, ep)
	})
	return out
}

func resolveAgainst(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", base, err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
