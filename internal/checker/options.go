package checker

import (
	"net/http"
	"time"

	"github.com/goobits/docs-engine-sub003/internal/metrics"
)

// Default values for checker options.
const (
	// DefaultConcurrency is the maximum number of probes in flight.
	DefaultConcurrency = 10

	// DefaultTimeout is the maximum time a single probe may take,
	// including the GET fallback and any redirects.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxRetries is the number of times to retry a failed probe.
	DefaultMaxRetries = 0

	// DefaultMaxRedirects is the maximum number of redirects to follow.
	DefaultMaxRedirects = 10

	// DefaultRetryDelay is the base delay of the exponential retry backoff.
	DefaultRetryDelay = time.Second

	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "doclinks/1.0"
)

// DefaultSkipDomains are hostname fragments that are never probed.
var DefaultSkipDomains = []string{"localhost", "127.0.0.1", "example.com"}

// Options configures the behavior of the link checker.
type Options struct {
	// UserAgent is the User-Agent header sent with requests.
	// Some servers block requests without a proper User-Agent.
	UserAgent string

	// Concurrency is the number of concurrent workers probing links.
	Concurrency int

	// Timeout bounds each probe. A probe that exceeds it fails with a
	// timeout error without affecting other probes.
	Timeout time.Duration

	// MaxRetries is the number of times to retry a failed probe.
	// Only transient errors (timeouts, network errors, 5xx, 429) are retried.
	MaxRetries int

	// RetryDelay is the base delay between retries; it doubles per attempt.
	RetryDelay time.Duration

	// MaxRedirects is the maximum number of redirects to follow.
	MaxRedirects int

	// SkipDomains lists hostname substrings. Matching URLs are reported
	// valid with status 0 and never requested.
	SkipDomains []string

	// RateLimit caps outgoing requests per second. Zero disables the limit.
	RateLimit float64

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper

	// Metrics receives probe observations. May be nil.
	Metrics *metrics.Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Concurrency:  DefaultConcurrency,
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
		RetryDelay:   DefaultRetryDelay,
		MaxRedirects: DefaultMaxRedirects,
		UserAgent:    DefaultUserAgent,
		SkipDomains:  append([]string(nil), DefaultSkipDomains...),
	}
}

// WithConcurrency sets the number of concurrent workers.
func (o Options) WithConcurrency(n int) Options {
	if n > 0 {
		o.Concurrency = n
	}
	return o
}

// WithTimeout sets the probe timeout.
func (o Options) WithTimeout(d time.Duration) Options {
	if d > 0 {
		o.Timeout = d
	}
	return o
}

// WithMaxRetries sets the maximum retry count.
func (o Options) WithMaxRetries(n int) Options {
	if n >= 0 {
		o.MaxRetries = n
	}
	return o
}

// WithRetryDelay sets the base retry delay.
func (o Options) WithRetryDelay(d time.Duration) Options {
	if d > 0 {
		o.RetryDelay = d
	}
	return o
}

// WithMaxRedirects sets the maximum number of redirects to follow.
func (o Options) WithMaxRedirects(n int) Options {
	if n > 0 {
		o.MaxRedirects = n
	}
	return o
}

// WithUserAgent sets the User-Agent header.
func (o Options) WithUserAgent(ua string) Options {
	if ua != "" {
		o.UserAgent = ua
	}
	return o
}

// WithSkipDomains replaces the skip-domain list. A nil list is ignored;
// an empty list disables skipping.
func (o Options) WithSkipDomains(domains []string) Options {
	if domains != nil {
		o.SkipDomains = domains
	}
	return o
}

// WithRateLimit sets the maximum requests per second.
func (o Options) WithRateLimit(perSecond float64) Options {
	if perSecond >= 0 {
		o.RateLimit = perSecond
	}
	return o
}

// WithTransport sets the HTTP transport.
func (o Options) WithTransport(rt http.RoundTripper) Options {
	if rt != nil {
		o.Transport = rt
	}
	return o
}

// WithMetrics sets the metrics sink.
func (o Options) WithMetrics(m *metrics.Metrics) Options {
	o.Metrics = m
	return o
}
