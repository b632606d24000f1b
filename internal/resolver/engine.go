// Package resolver recovers playable media URLs by rendering a page and
// watching the requests its scripts issue.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"animius/internal/log"

	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout      = 10 * time.Second
	defaultResetTimeout = 5 * time.Second
	defaultQueueSize    = 16
)

// State is the engine's externally visible state.
type State int32

const (
	StateIdle State = iota
	StateResolving
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Request is a single resolution.
type Request struct {
	PageURL   string
	Pattern   *regexp.Regexp
	UserAgent string
	Headers   map[string]string
	Timeout   time.Duration // zero uses the engine default
}

// Result is the first matching request URL plus the headers the resolving
// page sent, which the media origin usually expects as well.
type Result struct {
	URL     string
	Headers map[string]string
}

// Stats counts terminal outcomes.
type Stats struct {
	Resolved int64
	TimedOut int64
	Failed   int64
}

type job struct {
	ctx   context.Context
	req   Request
	reply chan outcome
}

type outcome struct {
	res Result
	err error
}

// Engine serializes resolutions onto one worker goroutine that exclusively
// owns the rendering session. Requests run one at a time in arrival order.
type Engine struct {
	name           string
	launch         Launcher
	defaultTimeout time.Duration
	resetTimeout   time.Duration

	jobs chan *job
	quit chan struct{}
	done chan struct{}

	lifetime context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	started  bool
	closed   bool
	closeErr error

	state    atomic.Int32
	resolved atomic.Int64
	timedOut atomic.Int64
	failed   atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithName tags log entries with the owning source.
func WithName(name string) Option { return func(e *Engine) { e.name = name } }

// WithDefaultTimeout sets the deadline for requests without one.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.defaultTimeout = d
		}
	}
}

// WithResetTimeout bounds the post-resolution reset.
func WithResetTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.resetTimeout = d
		}
	}
}

// WithQueueSize sets how many requests may wait before callers block.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.jobs = make(chan *job, n)
		}
	}
}

// New returns an engine that launches its session on first use.
func New(launch Launcher, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		launch:         launch,
		defaultTimeout: DefaultTimeout,
		resetTimeout:   defaultResetTimeout,
		jobs:           make(chan *job, defaultQueueSize),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		lifetime:       ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Stats returns outcome counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Resolved: e.resolved.Load(),
		TimedOut: e.timedOut.Load(),
		Failed:   e.failed.Load(),
	}
}

// Resolve queues req and waits for its outcome. The deadline is measured
// from the moment the worker starts navigating, not from queueing.
func (e *Engine) Resolve(ctx context.Context, req Request) (Result, error) {
	if req.Pattern == nil {
		return Result{}, errors.New("resolver: nil pattern")
	}
	if !e.start() {
		return Result{}, ErrEngineClosed
	}

	j := &job{ctx: ctx, req: req, reply: make(chan outcome, 1)}
	select {
	case e.jobs <- j:
	case <-e.quit:
		return Result{}, ErrEngineClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case out := <-j.reply:
		return out.res, out.err
	case <-e.quit:
		// The worker cancels whatever it is running; a reply may already
		// be waiting but closing wins.
		return Result{}, ErrEngineClosed
	case <-ctx.Done():
		// The worker sees the same ctx and abandons the job.
		return Result{}, ctx.Err()
	}
}

// Close cancels any in-flight resolution, fails queued ones with
// ErrEngineClosed and releases the session exactly once. It is safe to call
// repeatedly and before any resolution; only the first call can return an
// error.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	started := e.started
	e.state.Store(int32(StateClosed))
	e.cancel()
	close(e.quit)
	e.mu.Unlock()

	if started {
		<-e.done
	}
	return e.closeErr
}

func (e *Engine) start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	if !e.started {
		e.started = true
		go e.run()
	}
	return true
}

func (e *Engine) logger() *logrus.Entry {
	return log.WithField("source", e.name)
}

func (e *Engine) run() {
	defer close(e.done)

	var sess Session
	defer func() {
		if sess != nil {
			e.closeErr = sess.Close()
		}
	}()

	for {
		select {
		case <-e.lifetime.Done():
			return
		case j := <-e.jobs:
			if err := j.ctx.Err(); err != nil {
				j.reply <- outcome{err: err}
				continue
			}
			if e.lifetime.Err() != nil {
				j.reply <- outcome{err: ErrEngineClosed}
				return
			}

			if sess == nil {
				s, err := e.launchSession(j.ctx)
				if err != nil {
					e.failed.Add(1)
					j.reply <- outcome{err: err}
					continue
				}
				sess = s
			}

			res, err := e.resolve(sess, j)
			j.reply <- outcome{res: res, err: err}

			if e.lifetime.Err() != nil {
				return
			}
			if !e.reset(sess) {
				if cerr := sess.Close(); cerr != nil {
					e.logger().Warnf("failed to close session after reset failure: %v", cerr)
				}
				sess = nil
			}
		}
	}
}

func (e *Engine) launchSession(ctx context.Context) (Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.lifetime, cancel)
	defer stop()

	e.logger().Debug("launching rendering session")
	s, err := e.launch(ctx)
	if err != nil {
		if e.lifetime.Err() != nil {
			return nil, ErrEngineClosed
		}
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return s, nil
}

// capture records the first matching URL; the session may call the observer
// from its own goroutine.
type capture struct {
	mu       sync.Mutex
	pattern  *regexp.Regexp
	matched  string
	observed int
}

func (c *capture) observe(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.matched != "" {
		return true
	}
	c.observed++
	if c.pattern.MatchString(url) {
		c.matched = url
		return true
	}
	return false
}

func (c *capture) result() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matched, c.observed
}

func (e *Engine) resolve(sess Session, j *job) (Result, error) {
	timeout := j.req.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	ctx, cancel := context.WithTimeout(j.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(e.lifetime, cancel)
	defer stop()

	e.state.CompareAndSwap(int32(StateIdle), int32(StateResolving))
	defer e.state.CompareAndSwap(int32(StateResolving), int32(StateIdle))

	c := &capture{pattern: j.req.Pattern}
	start := time.Now()
	err := sess.Observe(ctx, Navigation{
		URL:       j.req.PageURL,
		UserAgent: j.req.UserAgent,
		Headers:   j.req.Headers,
	}, c.observe)
	matched, observed := c.result()

	entry := e.logger().WithFields(logrus.Fields{
		"page":     j.req.PageURL,
		"elapsed":  time.Since(start).Round(time.Millisecond),
		"observed": observed,
	})

	switch {
	case matched != "":
		e.resolved.Add(1)
		entry.WithField("url", matched).Debug("resolved")
		return Result{URL: matched, Headers: maps.Clone(j.req.Headers)}, nil
	case e.lifetime.Err() != nil:
		e.failed.Add(1)
		entry.Debug("cancelled by close")
		return Result{}, ErrEngineClosed
	case j.ctx.Err() != nil:
		e.failed.Add(1)
		entry.Debug("cancelled by caller")
		return Result{}, j.ctx.Err()
	case ctx.Err() != nil:
		e.timedOut.Add(1)
		entry.Debug("timed out")
		return Result{}, fmt.Errorf("%w after %s: %s", ErrResolutionTimeout, timeout, j.req.PageURL)
	case err != nil:
		e.failed.Add(1)
		entry.Debugf("failed: %v", err)
		var navErr *NavigationError
		if !errors.As(err, &navErr) {
			err = &NavigationError{URL: j.req.PageURL, Err: err}
		}
		return Result{}, err
	default:
		e.failed.Add(1)
		return Result{}, &NavigationError{URL: j.req.PageURL, Err: errors.New("session stopped without a match")}
	}
}

// reset returns the session to a blank state. False means the session can no
// longer be trusted and must be replaced.
func (e *Engine) reset(sess Session) bool {
	ctx, cancel := context.WithTimeout(e.lifetime, e.resetTimeout)
	defer cancel()
	if err := sess.Reset(ctx); err != nil {
		e.logger().Warnf("failed to reset rendering session: %v", err)
		return false
	}
	return true
}
