// Package checker probes external URLs over HTTP.
// It uses a worker pool for bounded concurrency, memoizes results per URL
// for the lifetime of a Checker and coalesces concurrent duplicate probes.
// Transient failures can be retried with exponential backoff.
package checker

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Checker performs concurrent link checking with configurable options.
// One Checker should be used per run: its cache lives as long as it does.
type Checker struct {
	opts    Options
	client  *http.Client
	cache   *Cache
	group   singleflight.Group
	limiter *rate.Limiter
}

// New creates a new Checker with the given options. Zero values fall back
// to the defaults.
func New(opts Options) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	c := &Checker{
		opts:   opts,
		client: newHTTPClient(opts),
		cache:  NewCache(),
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// newHTTPClient creates an HTTP client with connection pooling and a
// redirect limit. Timeouts are applied per probe through the context.
func newHTTPClient(opts Options) *http.Client {
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,

			// Connection pooling - reuse connections for efficiency
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     20,
			IdleConnTimeout:     90 * time.Second,

			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},

			DialContext: (&net.Dialer{
				Timeout:   opts.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: opts.Timeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	maxRedirects := opts.MaxRedirects
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("too many redirects (max %d)", maxRedirects)
			}
			return nil
		},
	}
}

// job pairs a link with its input position.
type job struct {
	index int
	link  Link
}

// CheckAll checks all links and returns one result per link, in input
// order, after all probes are complete. Links that were never probed
// because ctx was canceled are reported as canceled.
func (c *Checker) CheckAll(ctx context.Context, links []Link) []Result {
	results := make([]Result, len(links))
	done := make([]bool, len(links))

	for r := range c.Check(ctx, links) {
		results[r.Index] = r
		done[r.Index] = true
	}

	for i := range results {
		if !done[i] {
			results[i] = canceledResult(i, links[i], "check canceled")
		}
	}
	return results
}

// Check checks links concurrently using a worker pool and streams results
// in completion order; Result.Index identifies the originating link.
// Jobs are handed to workers in submission order, so at most
// Options.Concurrency probes run at once and the rest wait FIFO.
// The returned channel is closed when all links have been checked.
// Use the context to cancel ongoing checks.
func (c *Checker) Check(ctx context.Context, links []Link) <-chan Result {
	results := make(chan Result, c.opts.Concurrency)

	go func() {
		defer close(results)

		jobs := make(chan job, len(links))

		var wg sync.WaitGroup
		for i := 0; i < c.opts.Concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.worker(ctx, jobs, results)
			}()
		}

	sendLoop:
		for i, link := range links {
			select {
			case jobs <- job{index: i, link: link}:
			case <-ctx.Done():
				break sendLoop
			}
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}

// worker processes links from the jobs channel and sends results.
func (c *Checker) worker(ctx context.Context, jobs <-chan job, results chan<- Result) {
	for j := range jobs {
		if ctx.Err() != nil {
			results <- canceledResult(j.index, j.link, "check canceled")
			continue
		}
		r := c.probe(ctx, j.link)
		r.Link = j.link
		r.Index = j.index
		results <- r
	}
}

// probe answers from the skip list or the cache when possible, otherwise
// performs the network check. Concurrent probes of the same URL share one
// network check.
func (c *Checker) probe(ctx context.Context, link Link) Result {
	if c.shouldSkip(link.URL) {
		c.opts.Metrics.ProbeSkipped()
		return Result{Valid: true, Skipped: true}
	}

	if r, ok := c.cache.Get(link.URL); ok {
		c.opts.Metrics.CacheHit()
		r.Cached = true
		return r
	}

	v, _, _ := c.group.Do(link.URL, func() (any, error) {
		if r, ok := c.cache.Get(link.URL); ok {
			r.Cached = true
			return r, nil
		}
		r := c.checkWithRetry(ctx, link)
		if r.ErrKind != ErrKindCanceled {
			c.cache.Set(link.URL, r)
		}
		return r, nil
	})

	return v.(Result) //nolint:forcetypeassert // the group only stores Results
}

// shouldSkip reports whether the URL's hostname contains a skip domain.
func (c *Checker) shouldSkip(rawURL string) bool {
	if len(c.opts.SkipDomains) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range c.opts.SkipDomains {
		if d != "" && strings.Contains(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// checkWithRetry attempts to check a link with exponential backoff retry.
func (c *Checker) checkWithRetry(ctx context.Context, link Link) Result {
	var lastResult Result

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffDelay(c.opts.RetryDelay, attempt)):
			case <-ctx.Done():
				return Result{Error: "check canceled during retry", ErrKind: ErrKindCanceled}
			}
		}

		result := c.checkSingle(ctx, link)

		if result.Valid || !isRetryable(result) {
			return result
		}

		lastResult = result
	}

	if c.opts.MaxRetries > 0 {
		lastResult.Error = fmt.Sprintf("%s (after %d retries)", lastResult.Error, c.opts.MaxRetries)
	}
	return lastResult
}

// backoffDelay calculates delay for retry with exponential backoff and jitter.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		attempt = 16
	}
	delay := base * time.Duration(1<<uint(attempt-1)) //nolint:gosec // attempt is bounded

	// Cap at 30 seconds
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}

	// Add jitter (0-25% of delay) using crypto/rand
	maxJitter := int64(delay / 4)
	if maxJitter > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
		if err == nil {
			return delay + time.Duration(n.Int64())
		}
	}

	return delay
}

// isRetryable determines if a result should trigger a retry.
func isRetryable(result Result) bool {
	switch result.ErrKind {
	case ErrKindTimeout, ErrKindNetwork:
		return true
	case ErrKindHTTP:
		return result.StatusCode >= 500 || result.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// checkSingle performs one probe bounded by the configured timeout:
// HEAD first, GET when the server rejects HEAD with 405 or 501.
func (c *Checker) checkSingle(ctx context.Context, link Link) Result {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{Error: "check canceled", ErrKind: ErrKindCanceled}
		}
	}

	target := link.URL
	if strings.HasPrefix(target, "//") {
		target = "https:" + target
	}

	start := time.Now()
	c.opts.Metrics.ProbeStarted()

	probeCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	status, finalURL, err := c.doRequest(probeCtx, http.MethodHead, target)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, finalURL, err = c.doRequest(probeCtx, http.MethodGet, target)
	}

	var result Result
	switch {
	case err != nil:
		result.ErrKind, result.Error = c.classifyError(ctx, err)
	case status >= 200 && status < 300:
		result.Valid = true
		result.StatusCode = status
	default:
		result.StatusCode = status
		result.ErrKind = ErrKindHTTP
		result.Error = strings.TrimSpace(fmt.Sprintf("HTTP %d %s", status, http.StatusText(status)))
	}
	if err == nil && finalURL != "" && finalURL != target && finalURL != link.URL {
		result.FinalURL = finalURL
	}

	c.opts.Metrics.ProbeFinished(result.ErrKind.String(), time.Since(start))
	return result
}

// doRequest performs an HTTP request and returns the status code and the
// URL of the final response after redirects.
func (c *Checker) doRequest(ctx context.Context, method, target string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return 0, "", err
	}

	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// For GET requests, drain body to allow connection reuse
	// Limit read to prevent memory issues with large responses
	if method == http.MethodGet {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024*1024)) // 1MB max
	}

	finalURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return resp.StatusCode, finalURL, nil
}

// classifyError maps a request error onto an ErrorKind and message.
// parent is the run context: its cancellation is not a timeout.
func (c *Checker) classifyError(parent context.Context, err error) (ErrorKind, string) {
	if parent.Err() != nil {
		return ErrKindCanceled, "check canceled"
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return ErrKindTimeout, fmt.Sprintf("request timed out after %dms", c.opts.Timeout.Milliseconds())
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrKindNetwork, urlErr.Err.Error()
	}
	return ErrKindNetwork, err.Error()
}

// canceledResult reports a link that was not probed because the run ended.
func canceledResult(index int, link Link, msg string) Result {
	return Result{Link: link, Index: index, Error: msg, ErrKind: ErrKindCanceled}
}
