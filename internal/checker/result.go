package checker

import "sync"

// Link represents a URL to be checked.
// This is decoupled from parser.Link to keep the checker package independent.
type Link struct {
	URL      string // The URL to check
	FilePath string // Source file where the link was found
	Line     int    // Line number in the source file (0 if unknown)
}

// ErrorKind classifies why a probe failed.
type ErrorKind int

const (
	// ErrKindNone means the probe succeeded.
	ErrKindNone ErrorKind = iota
	// ErrKindHTTP means the server answered with a non-2xx status.
	ErrKindHTTP
	// ErrKindTimeout means the probe exceeded its timeout.
	ErrKindTimeout
	// ErrKindNetwork covers DNS, connection and TLS failures.
	ErrKindNetwork
	// ErrKindCanceled means the run was interrupted before the probe finished.
	ErrKindCanceled
)

// String returns the metric-friendly name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindNone:
		return "valid"
	case ErrKindHTTP:
		return "http_error"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindNetwork:
		return "network_error"
	case ErrKindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result represents the outcome of checking a single link.
type Result struct {
	Link       Link      // The original link that was checked
	Index      int       // Position of Link in the slice passed to Check
	Valid      bool      // true if the link is reachable or skipped
	StatusCode int       // HTTP status code (0 if skipped or the request failed)
	FinalURL   string    // URL after redirects, set only when it differs from Link.URL
	Error      string    // Error message if the link is not valid
	ErrKind    ErrorKind // Classification of Error
	Skipped    bool      // true if the host matched a skip domain
	Cached     bool      // true if the result was reused from an earlier probe
}

// Summary provides statistics about check results.
type Summary struct {
	Total    int // Total links checked
	Valid    int // Links that are reachable (skipped included)
	Broken   int // Links that failed
	Skipped  int // Links matching a skip domain
	Timeouts int // Links that failed with a timeout
	Cached   int // Links answered from the cache
}

// Summarize creates a summary from a slice of results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Valid {
			s.Valid++
		} else {
			s.Broken++
		}
		if r.Skipped {
			s.Skipped++
		}
		if r.ErrKind == ErrKindTimeout {
			s.Timeouts++
		}
		if r.Cached {
			s.Cached++
		}
	}
	return s
}

// Cache memoizes probe results by literal URL for the lifetime of a Checker.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]Result{}}
}

// Get returns the cached result for url.
func (c *Cache) Get(url string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.entries[url]
	return r, ok
}

// Set stores the result for url.
func (c *Cache) Set(url string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = r
}
