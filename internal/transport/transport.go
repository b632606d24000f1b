// Package transport retrieves raw documents over plain HTTP for the site adapters.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"animius/internal/log"

	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when the caller does not supply one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"

const maxBodySize = 8 << 20

// FetchError reports a transport failure or a non-success status.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Config holds the client tuning knobs.
type Config struct {
	Timeout     time.Duration
	Rate        float64 // requests per second, <= 0 disables limiting
	Burst       int
	Retries     int
	InitialWait time.Duration
	UserAgent   string
}

// DefaultConfig is suitable for polite scraping of a single site.
var DefaultConfig = Config{
	Timeout:     30 * time.Second,
	Rate:        4,
	Burst:       2,
	Retries:     2,
	InitialWait: 500 * time.Millisecond,
	UserAgent:   DefaultUserAgent,
}

// Client fetches documents. One Client per adapter; adapters share nothing.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	cfg     Config
}

// New creates a Client with a tuned transport.
func New(cfg Config) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.InitialWait <= 0 {
		cfg.InitialWait = DefaultConfig.InitialWait
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 32
	t.MaxIdleConnsPerHost = 8
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout, Transport: t},
		limiter: limiter,
		cfg:     cfg,
	}
}

// Fetch returns the body of url as text. Non-2xx responses and transport
// failures are reported as *FetchError.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			wait := c.cfg.InitialWait << (attempt - 1)
			log.WithField("url", url).Debugf("retrying fetch (attempt %d) in %s: %v", attempt+1, wait, lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", &FetchError{URL: url, Err: ctx.Err()}
			}
		}

		body, retry, err := c.fetchOnce(ctx, url, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || !isRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

// fetchOnce performs a single attempt. retry is false for failures that no
// further attempt can fix, such as a malformed URL.
func (c *Client) fetchOnce(ctx context.Context, url string, headers map[string]string) (body string, retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", false, &FetchError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return "", true, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", true, &FetchError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return string(data), false, nil
}

// isRetryable reports whether err is a transient failure worth another attempt.
func isRetryable(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	case 0:
	default:
		return false
	}
	if errors.Is(fe.Err, context.Canceled) || errors.Is(fe.Err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(fe.Err, &netErr)
}
