// Package stats tracks timings and counts for a link validation run.
// Each phase (discover, extract, validate) records its wall-clock span;
// memory figures are captured when validation ends.
package stats

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Stats holds performance metrics for one run.
type Stats struct {
	DiscoverStart time.Time
	DiscoverEnd   time.Time
	ExtractStart  time.Time
	ExtractEnd    time.Time
	ValidateStart time.Time
	ValidateEnd   time.Time

	FilesScanned   int
	FilesFailed    int
	LinksFound     int
	UniqueExternal int
	Ignored        int

	// External probe outcomes
	ProbesCached  int
	ProbesSkipped int
	ProbeTimeouts int

	// Memory stats (captured at end)
	HeapAlloc    uint64
	TotalAlloc   uint64
	NumGC        uint32
	NumGoroutine int
}

// New creates a new Stats instance.
func New() *Stats {
	return &Stats{}
}

// StartDiscover marks the beginning of file discovery.
func (s *Stats) StartDiscover() {
	s.DiscoverStart = time.Now()
}

// EndDiscover marks the end of file discovery.
func (s *Stats) EndDiscover(filesFound int) {
	s.DiscoverEnd = time.Now()
	s.FilesScanned = filesFound
}

// StartExtract marks the beginning of link extraction.
func (s *Stats) StartExtract() {
	s.ExtractStart = time.Now()
}

// EndExtract marks the end of link extraction.
func (s *Stats) EndExtract(linksFound, filesFailed int) {
	s.ExtractEnd = time.Now()
	s.LinksFound = linksFound
	s.FilesFailed = filesFailed
}

// StartValidate marks the beginning of validation.
func (s *Stats) StartValidate() {
	s.ValidateStart = time.Now()
}

// EndValidate marks the end of validation and captures memory stats.
func (s *Stats) EndValidate(uniqueExternal, ignored int) {
	s.ValidateEnd = time.Now()
	s.UniqueExternal = uniqueExternal
	s.Ignored = ignored
	s.captureMemoryStats()
}

// RecordProbes stores how external probes were answered.
func (s *Stats) RecordProbes(cached, skipped, timeouts int) {
	s.ProbesCached = cached
	s.ProbesSkipped = skipped
	s.ProbeTimeouts = timeouts
}

func (s *Stats) captureMemoryStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.HeapAlloc = m.HeapAlloc
	s.TotalAlloc = m.TotalAlloc
	s.NumGC = m.NumGC
	s.NumGoroutine = runtime.NumGoroutine()
}

func span(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start)
}

// DiscoverDuration returns the time spent finding files.
func (s *Stats) DiscoverDuration() time.Duration {
	return span(s.DiscoverStart, s.DiscoverEnd)
}

// ExtractDuration returns the time spent extracting links.
func (s *Stats) ExtractDuration() time.Duration {
	return span(s.ExtractStart, s.ExtractEnd)
}

// ValidateDuration returns the time spent validating links.
func (s *Stats) ValidateDuration() time.Duration {
	return span(s.ValidateStart, s.ValidateEnd)
}

// TotalDuration returns the time from discovery start to validation end.
func (s *Stats) TotalDuration() time.Duration {
	return span(s.DiscoverStart, s.ValidateEnd)
}

// LinksPerSecond returns validation throughput.
func (s *Stats) LinksPerSecond() float64 {
	d := s.ValidateDuration()
	if d == 0 || s.LinksFound == 0 {
		return 0
	}
	return float64(s.LinksFound) / d.Seconds()
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%.1fs", int(d.Minutes()), d.Seconds()-float64(int(d.Minutes())*60))
}

// FormatBytes formats bytes for human-readable display.
func FormatBytes(bytes uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func (s *Stats) writePhase(b *strings.Builder, label string, d, total time.Duration) {
	fmt.Fprintf(b, "  %-14s %8s", label+":", FormatDuration(d))
	if total > 0 {
		fmt.Fprintf(b, "  (%4.1f%%)", float64(d)/float64(total)*100)
	}
	b.WriteString("\n")
}

// String returns a formatted multi-line report.
func (s *Stats) String() string {
	var b strings.Builder
	total := s.TotalDuration()

	b.WriteString("\n=== Performance Statistics ===\n\n")

	b.WriteString("Timing:\n")
	s.writePhase(&b, "Discover", s.DiscoverDuration(), total)
	s.writePhase(&b, "Extract", s.ExtractDuration(), total)
	s.writePhase(&b, "Validate", s.ValidateDuration(), total)
	b.WriteString("  ─────────────────────────\n")
	fmt.Fprintf(&b, "  %-14s %8s\n", "Total:", FormatDuration(total))

	b.WriteString("\nThroughput:\n")
	fmt.Fprintf(&b, "  Files scanned:     %5d\n", s.FilesScanned)
	if s.FilesFailed > 0 {
		fmt.Fprintf(&b, "  Files skipped:     %5d\n", s.FilesFailed)
	}
	fmt.Fprintf(&b, "  Links found:       %5d\n", s.LinksFound)
	fmt.Fprintf(&b, "  External URLs:     %5d\n", s.UniqueExternal)
	if s.Ignored > 0 {
		fmt.Fprintf(&b, "  Ignored:           %5d\n", s.Ignored)
	}
	fmt.Fprintf(&b, "  Links/second:    %7.1f\n", s.LinksPerSecond())

	if s.UniqueExternal > 0 {
		b.WriteString("\nExternal probes:\n")
		fmt.Fprintf(&b, "  Cache hits:        %5d\n", s.ProbesCached)
		fmt.Fprintf(&b, "  Skipped domains:   %5d\n", s.ProbesSkipped)
		fmt.Fprintf(&b, "  Timeouts:          %5d\n", s.ProbeTimeouts)
	}

	b.WriteString("\nMemory:\n")
	fmt.Fprintf(&b, "  Heap in use:   %8s\n", FormatBytes(s.HeapAlloc))
	fmt.Fprintf(&b, "  Total alloc:   %8s\n", FormatBytes(s.TotalAlloc))
	fmt.Fprintf(&b, "  GC cycles:     %8d\n", s.NumGC)
	fmt.Fprintf(&b, "  Goroutines:    %8d\n", s.NumGoroutine)

	return b.String()
}

// ToMap returns the stats as nested maps for structured output.
func (s *Stats) ToMap() map[string]any {
	return map[string]any{
		"timing": map[string]any{
			"discover_ms": s.DiscoverDuration().Milliseconds(),
			"extract_ms":  s.ExtractDuration().Milliseconds(),
			"validate_ms": s.ValidateDuration().Milliseconds(),
			"total_ms":    s.TotalDuration().Milliseconds(),
		},
		"throughput": map[string]any{
			"files_scanned":    s.FilesScanned,
			"files_failed":     s.FilesFailed,
			"links_found":      s.LinksFound,
			"unique_external":  s.UniqueExternal,
			"ignored":          s.Ignored,
			"links_per_second": s.LinksPerSecond(),
		},
		"probes": map[string]any{
			"cached":   s.ProbesCached,
			"skipped":  s.ProbesSkipped,
			"timeouts": s.ProbeTimeouts,
		},
		"memory": map[string]any{
			"heap_bytes":  s.HeapAlloc,
			"total_bytes": s.TotalAlloc,
			"gc_cycles":   s.NumGC,
			"goroutines":  s.NumGoroutine,
		},
	}
}
