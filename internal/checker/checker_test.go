package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goobits/docs-engine-sub003/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func okResponse(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(http.NoBody),
		Header:     http.Header{},
		Request:    req,
	}
}

// countingTransport answers 200 after delay and records request counts and
// the peak number of requests in flight.
type countingTransport struct {
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32

	mu    sync.Mutex
	byURL map[string]int
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	c.mu.Lock()
	if c.byURL == nil {
		c.byURL = map[string]int{}
	}
	c.byURL[req.URL.String()]++
	c.mu.Unlock()

	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-time.After(c.delay):
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
	return okResponse(req), nil
}

func testOptions() Options {
	return DefaultOptions().WithConcurrency(1).WithMaxRetries(0).WithSkipDomains([]string{})
}

// =============================================================================
// Options Tests
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	assert.Equal(t, DefaultConcurrency, opts.Concurrency)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, DefaultMaxRetries, opts.MaxRetries)
	assert.Equal(t, DefaultMaxRedirects, opts.MaxRedirects)
	assert.Equal(t, DefaultRetryDelay, opts.RetryDelay)
	assert.Equal(t, DefaultUserAgent, opts.UserAgent)
	assert.Equal(t, []string{"localhost", "127.0.0.1", "example.com"}, opts.SkipDomains)
	assert.Zero(t, opts.RateLimit)
}

func TestOptionsWithMethods(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) { return okResponse(req), nil })
	m := metrics.New("test")

	tests := []struct {
		name     string
		modifier func(Options) Options
		check    func(*testing.T, Options)
	}{
		{
			name:     "WithConcurrency",
			modifier: func(o Options) Options { return o.WithConcurrency(20) },
			check:    func(t *testing.T, o Options) { assert.Equal(t, 20, o.Concurrency) },
		},
		{
			name:     "WithConcurrencyIgnoresZero",
			modifier: func(o Options) Options { return o.WithConcurrency(0) },
			check:    func(t *testing.T, o Options) { assert.Equal(t, DefaultConcurrency, o.Concurrency) },
		},
		{
			name:     "WithTimeout",
			modifier: func(o Options) Options { return o.WithTimeout(30 * time.Second) },
			check:    func(t *testing.T, o Options) { assert.Equal(t, 30*time.Second, o.Timeout) },
		},
		{
			name:     "WithMaxRetries",
			modifier: func(o Options) Options { return o.WithMaxRetries(5) },
			check:    func(t *testing.T, o Options) { assert.Equal(t, 5, o.MaxRetries) },
		},
		{
			name:     "WithRetryDelay",
			modifier: func(o Options) Options { return o.WithRetryDelay(time.Millisecond) },
			check:    func(t *testing.T, o Options) { assert.Equal(t, time.Millisecond, o.RetryDelay) },
		},
		{
			name:     "WithMaxRedirects",
			modifier: func(o Options) Options { return o.WithMaxRedirects(15) },
			check:    func(t *testing.T, o Options) { assert.Equal(t, 15, o.MaxRedirects) },
		},
		{
			name:     "WithUserAgent",
			modifier: func(o Options) Options { return o.WithUserAgent("custom-agent/2.0") },
			check:    func(t *testing.T, o Options) { assert.Equal(t, "custom-agent/2.0", o.UserAgent) },
		},
		{
			name:     "WithSkipDomains",
			modifier: func(o Options) Options { return o.WithSkipDomains([]string{"internal.corp"}) },
			check:    func(t *testing.T, o Options) { assert.Equal(t, []string{"internal.corp"}, o.SkipDomains) },
		},
		{
			name:     "WithSkipDomainsNilKeepsDefaults",
			modifier: func(o Options) Options { return o.WithSkipDomains(nil) },
			check:    func(t *testing.T, o Options) { assert.Equal(t, DefaultSkipDomains, o.SkipDomains) },
		},
		{
			name:     "WithRateLimit",
			modifier: func(o Options) Options { return o.WithRateLimit(2.5) },
			check:    func(t *testing.T, o Options) { assert.InDelta(t, 2.5, o.RateLimit, 0) },
		},
		{
			name:     "WithTransportAndMetrics",
			modifier: func(o Options) Options { return o.WithTransport(rt).WithMetrics(m) },
			check: func(t *testing.T, o Options) {
				assert.NotNil(t, o.Transport)
				assert.Same(t, m, o.Metrics)
			},
		},
		{
			name: "ChainedMethods",
			modifier: func(o Options) Options {
				return o.WithConcurrency(5).WithTimeout(5 * time.Second).WithMaxRetries(1)
			},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, 5, o.Concurrency)
				assert.Equal(t, 5*time.Second, o.Timeout)
				assert.Equal(t, 1, o.MaxRetries)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.check(t, tt.modifier(DefaultOptions()))
		})
	}
}

func TestNew_FillsZeroOptions(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	opts := c.opts
	assert.Equal(t, DefaultConcurrency, opts.Concurrency)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, DefaultMaxRedirects, opts.MaxRedirects)
	assert.Equal(t, DefaultUserAgent, opts.UserAgent)
	assert.Empty(t, opts.SkipDomains)
}

// =============================================================================
// Result Tests
// =============================================================================

func TestErrorKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "valid", ErrKindNone.String())
	assert.Equal(t, "http_error", ErrKindHTTP.String())
	assert.Equal(t, "timeout", ErrKindTimeout.String())
	assert.Equal(t, "network_error", ErrKindNetwork.String())
	assert.Equal(t, "canceled", ErrKindCanceled.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	results := []Result{
		{Valid: true},
		{Valid: true, Skipped: true},
		{Valid: true, Cached: true},
		{Valid: false, ErrKind: ErrKindHTTP, StatusCode: 404},
		{Valid: false, ErrKind: ErrKindTimeout},
	}

	s := Summarize(results)
	assert.Equal(t, Summary{Total: 5, Valid: 3, Broken: 2, Skipped: 1, Timeouts: 1, Cached: 1}, s)
}

func TestCache(t *testing.T) {
	t.Parallel()

	c := NewCache()
	_, ok := c.Get("https://a.test")
	assert.False(t, ok)

	c.Set("https://a.test", Result{Valid: true, StatusCode: 200})
	r, ok := c.Get("https://a.test")
	require.True(t, ok)
	assert.Equal(t, 200, r.StatusCode)

	// Keys are literal: the query string makes a different entry.
	_, ok = c.Get("https://a.test?x=1")
	assert.False(t, ok)
}

// =============================================================================
// HTTP Checker Tests (with httptest)
// =============================================================================

func TestChecker_CheckAll_200OK(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := New(testOptions())
	links := []Link{{URL: server.URL, FilePath: "test.md", Line: 1}}

	results := checker.CheckAll(context.Background(), links)

	require.Len(t, results, 1)
	assert.True(t, results[0].Valid)
	assert.Equal(t, http.StatusOK, results[0].StatusCode)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, results[0].FinalURL)
	assert.Equal(t, links[0], results[0].Link)
}

func TestChecker_CheckAll_404NotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	results := New(testOptions()).CheckAll(context.Background(), []Link{{URL: server.URL}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, http.StatusNotFound, results[0].StatusCode)
	assert.Equal(t, ErrKindHTTP, results[0].ErrKind)
	assert.Equal(t, "HTTP 404 Not Found", results[0].Error)
}

func TestChecker_CheckAll_500ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	results := New(testOptions()).CheckAll(context.Background(), []Link{{URL: server.URL}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, "HTTP 500 Internal Server Error", results[0].Error)
}

func TestChecker_CheckAll_HeadFallbackToGet(t *testing.T) {
	t.Parallel()

	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	results := New(testOptions()).CheckAll(context.Background(), []Link{{URL: server.URL}})

	require.Len(t, results, 1)
	assert.True(t, results[0].Valid)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount)) // HEAD then GET
}

func TestChecker_CheckAll_RedirectRecordsFinalURL(t *testing.T) {
	t.Parallel()

	finalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer finalServer.Close()

	redirectServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, finalServer.URL, http.StatusMovedPermanently)
	}))
	defer redirectServer.Close()

	results := New(testOptions()).CheckAll(context.Background(), []Link{{URL: redirectServer.URL}})

	require.Len(t, results, 1)
	assert.True(t, results[0].Valid)
	assert.Equal(t, http.StatusOK, results[0].StatusCode)
	assert.Equal(t, finalServer.URL, results[0].FinalURL)
}

func TestChecker_CheckAll_RedirectToDead(t *testing.T) {
	t.Parallel()

	deadServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer deadServer.Close()

	redirectServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, deadServer.URL, http.StatusFound)
	}))
	defer redirectServer.Close()

	results := New(testOptions()).CheckAll(context.Background(), []Link{{URL: redirectServer.URL}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, http.StatusNotFound, results[0].StatusCode)
	assert.Equal(t, deadServer.URL, results[0].FinalURL)
}

func TestChecker_CheckAll_TooManyRedirects(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/next", http.StatusFound)
	}))
	defer server.Close()

	results := New(testOptions().WithMaxRedirects(3)).CheckAll(context.Background(), []Link{{URL: server.URL}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, ErrKindNetwork, results[0].ErrKind)
	assert.Contains(t, results[0].Error, "too many redirects")
}

func TestChecker_CheckAll_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	results := New(testOptions().WithTimeout(50*time.Millisecond)).
		CheckAll(context.Background(), []Link{{URL: server.URL}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, ErrKindTimeout, results[0].ErrKind)
	assert.Equal(t, "request timed out after 50ms", results[0].Error)
	assert.Zero(t, results[0].StatusCode)
}

func TestChecker_CheckAll_TimeoutIsPerProbe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	links := []Link{{URL: server.URL + "/slow"}, {URL: server.URL + "/fast"}}
	results := New(testOptions().WithConcurrency(2).WithTimeout(100*time.Millisecond)).
		CheckAll(context.Background(), links)

	require.Len(t, results, 2)
	assert.Equal(t, ErrKindTimeout, results[0].ErrKind)
	assert.True(t, results[1].Valid)
}

func TestChecker_CheckAll_NetworkError(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("dial tcp: lookup nope.invalid: no such host")
	})

	results := New(testOptions().WithTransport(rt)).
		CheckAll(context.Background(), []Link{{URL: "https://nope.invalid/page"}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, ErrKindNetwork, results[0].ErrKind)
	assert.Equal(t, "dial tcp: lookup nope.invalid: no such host", results[0].Error)
}

func TestChecker_CheckAll_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opts := testOptions().WithMaxRetries(2).WithRetryDelay(time.Millisecond)
	results := New(opts).CheckAll(context.Background(), []Link{{URL: server.URL}})

	require.Len(t, results, 1)
	assert.True(t, results[0].Valid)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChecker_CheckAll_DoesNotRetry404(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	opts := testOptions().WithMaxRetries(3).WithRetryDelay(time.Millisecond)
	results := New(opts).CheckAll(context.Background(), []Link{{URL: server.URL}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChecker_SendsUserAgent(t *testing.T) {
	t.Parallel()

	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	New(testOptions().WithUserAgent("docs-bot/3")).CheckAll(context.Background(), []Link{{URL: server.URL}})
	assert.Equal(t, "docs-bot/3", got.Load())
}

// =============================================================================
// Skip domains, caching and concurrency
// =============================================================================

func TestChecker_SkipDomains(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		t.Errorf("unexpected request to %s", req.URL)
		return okResponse(req), nil
	})
	m := metrics.New("test")
	c := New(DefaultOptions().WithTransport(rt).WithMetrics(m))

	links := []Link{
		{URL: "http://localhost:8080/x"},
		{URL: "https://127.0.0.1/admin"},
		{URL: "https://docs.EXAMPLE.com/page"},
		{URL: "//localhost/protocol-relative"},
	}
	results := c.CheckAll(context.Background(), links)

	require.Len(t, results, len(links))
	for i, r := range results {
		assert.True(t, r.Valid, links[i].URL)
		assert.True(t, r.Skipped, links[i].URL)
		assert.Zero(t, r.StatusCode, links[i].URL)
		assert.Empty(t, r.Error)
	}
	assert.InDelta(t, 4, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("skipped")), 0)
}

func TestChecker_ProtocolRelativeUsesHTTPS(t *testing.T) {
	t.Parallel()

	var scheme atomic.Value
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		scheme.Store(req.URL.Scheme)
		return okResponse(req), nil
	})

	results := New(testOptions().WithTransport(rt)).
		CheckAll(context.Background(), []Link{{URL: "//cdn.test/lib.js"}})

	require.Len(t, results, 1)
	assert.True(t, results[0].Valid)
	assert.Equal(t, "https", scheme.Load())
	assert.Empty(t, results[0].FinalURL)
}

func TestChecker_CachesByURL(t *testing.T) {
	t.Parallel()

	rt := &countingTransport{}
	m := metrics.New("test")
	c := New(testOptions().WithTransport(rt).WithMetrics(m))

	first := c.CheckAll(context.Background(), []Link{{URL: "https://a.test/page", FilePath: "a.md"}})
	second := c.CheckAll(context.Background(), []Link{
		{URL: "https://a.test/page", FilePath: "b.md", Line: 7},
		{URL: "https://a.test/page?v=2", FilePath: "b.md", Line: 8},
	})

	require.Len(t, first, 1)
	require.Len(t, second, 2)
	assert.False(t, first[0].Cached)
	assert.True(t, second[0].Cached)
	assert.Equal(t, "b.md", second[0].Link.FilePath)
	assert.Equal(t, 7, second[0].Link.Line)
	assert.False(t, second[1].Cached)

	assert.Equal(t, int32(2), rt.calls.Load())
	_, ok := c.cache.Get("https://a.test/page?v=2")
	assert.True(t, ok)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheHitsTotal), 0)
}

func TestChecker_CoalescesConcurrentDuplicates(t *testing.T) {
	t.Parallel()

	rt := &countingTransport{delay: 50 * time.Millisecond}
	c := New(testOptions().WithConcurrency(10).WithTransport(rt))

	links := make([]Link, 20)
	for i := range links {
		links[i] = Link{URL: "https://same.test/page", Line: i + 1}
	}

	results := c.CheckAll(context.Background(), links)

	require.Len(t, results, 20)
	for i, r := range results {
		assert.True(t, r.Valid)
		assert.Equal(t, i+1, r.Link.Line)
	}
	assert.Equal(t, int32(1), rt.calls.Load())
}

func TestChecker_ConcurrencyBound(t *testing.T) {
	t.Parallel()

	rt := &countingTransport{delay: 10 * time.Millisecond}
	m := metrics.New("test")
	c := New(testOptions().WithConcurrency(5).WithTransport(rt).WithMetrics(m))

	links := make([]Link, 50)
	for i := range links {
		links[i] = Link{URL: fmt.Sprintf("https://host%d.test/", i)}
	}

	results := c.CheckAll(context.Background(), links)

	require.Len(t, results, 50)
	assert.Equal(t, int32(50), rt.calls.Load())
	assert.LessOrEqual(t, rt.peak.Load(), int32(5))
	assert.GreaterOrEqual(t, rt.peak.Load(), int32(1))
	assert.InDelta(t, 50, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("valid")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ProbesInFlight), 0)
}

func TestChecker_CheckAll_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	// Earlier links take longer so completion order is reversed.
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		var n int
		_, _ = fmt.Sscanf(req.URL.Path, "/%d", &n)
		time.Sleep(time.Duration(10-n) * 5 * time.Millisecond)
		return okResponse(req), nil
	})

	links := make([]Link, 10)
	for i := range links {
		links[i] = Link{URL: fmt.Sprintf("https://order.test/%d", i)}
	}

	results := New(testOptions().WithConcurrency(10).WithTransport(rt)).CheckAll(context.Background(), links)

	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, links[i].URL, r.Link.URL)
		assert.Equal(t, i, r.Index)
	}
}

func TestChecker_Check_Streams(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) { return okResponse(req), nil })
	links := []Link{{URL: "https://s.test/1"}, {URL: "https://s.test/2"}, {URL: "https://s.test/3"}}

	seen := map[int]bool{}
	for r := range New(testOptions().WithConcurrency(2).WithTransport(rt)).Check(context.Background(), links) {
		seen[r.Index] = true
	}
	assert.Len(t, seen, 3)
}

func TestChecker_CheckAll_CanceledContext(t *testing.T) {
	t.Parallel()

	rt := &countingTransport{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	links := []Link{{URL: "https://a.test"}, {URL: "https://b.test"}}
	results := New(testOptions().WithTransport(rt)).CheckAll(ctx, links)

	require.Len(t, results, 2)
	for i, r := range results {
		assert.False(t, r.Valid)
		assert.Equal(t, ErrKindCanceled, r.ErrKind)
		assert.Equal(t, links[i], r.Link)
	}
	assert.Zero(t, rt.calls.Load())
}

func TestChecker_RateLimit(t *testing.T) {
	t.Parallel()

	rt := &countingTransport{}
	links := []Link{{URL: "https://r.test/1"}, {URL: "https://r.test/2"}, {URL: "https://r.test/3"}}

	results := New(testOptions().WithRateLimit(1000).WithTransport(rt)).CheckAll(context.Background(), links)

	require.Len(t, results, 3)
	assert.Equal(t, int32(3), rt.calls.Load())
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	for attempt := 1; attempt <= 4; attempt++ {
		base := 100 * time.Millisecond * time.Duration(1<<uint(attempt-1))
		d := backoffDelay(100*time.Millisecond, attempt)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/4)
	}

	assert.LessOrEqual(t, backoffDelay(time.Second, 20), 30*time.Second+30*time.Second/4)
}

// Not parallel: goroutine accounting must not see other tests' servers.
func TestChecker_NoGoroutineLeaks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rt := &countingTransport{delay: time.Millisecond}
	links := make([]Link, 30)
	for i := range links {
		links[i] = Link{URL: fmt.Sprintf("https://leak.test/%d", i%7)}
	}

	results := New(testOptions().WithConcurrency(4).WithTransport(rt)).CheckAll(context.Background(), links)
	require.Len(t, results, 30)

	ctx, cancel := context.WithCancel(context.Background())
	stream := New(testOptions().WithConcurrency(4).WithTransport(&countingTransport{delay: time.Second})).Check(ctx, links)
	cancel()
	canceled := 0
	for r := range stream {
		if r.ErrKind == ErrKindCanceled {
			canceled++
		}
	}
	assert.Positive(t, canceled)
}
