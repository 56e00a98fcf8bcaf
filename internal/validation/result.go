package validation

import (
	"fmt"

	"github.com/goobits/docs-engine-sub003/internal/parser"
)

// Outcome is the classification of a validated link.
type Outcome int

const (
	// InternalResolved means an internal or anchor-only link points to an
	// existing file and, when present, an existing anchor.
	InternalResolved Outcome = iota
	// FileNotFound means no file matched the internal link's path.
	FileNotFound
	// AnchorNotFound means the target file exists but lacks the anchor.
	AnchorNotFound
	// ExternalValid means the external URL answered with a 2xx status.
	ExternalValid
	// ExternalSkipped means the host matched a skip domain and was not probed.
	ExternalSkipped
	// ExternalHTTPError means the server answered with a non-2xx status.
	ExternalHTTPError
	// ExternalTimeout means the probe exceeded its timeout.
	ExternalTimeout
	// ExternalNetworkError covers DNS, connection and TLS failures and
	// interrupted probes.
	ExternalNetworkError
	// InternalError means validation itself failed unexpectedly.
	InternalError
)

var outcomeNames = [...]string{
	InternalResolved:     "internal_resolved",
	FileNotFound:         "file_not_found",
	AnchorNotFound:       "anchor_not_found",
	ExternalValid:        "external_valid",
	ExternalSkipped:      "external_skipped",
	ExternalHTTPError:    "external_http_error",
	ExternalTimeout:      "external_timeout",
	ExternalNetworkError: "external_network_error",
	InternalError:        "internal_error",
}

// String returns the snake_case name of the outcome.
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// IsValid reports whether the outcome counts as a working link.
func (o Outcome) IsValid() bool {
	switch o {
	case InternalResolved, ExternalValid, ExternalSkipped:
		return true
	default:
		return false
	}
}

// IsExternal reports whether the outcome came from the external prober.
func (o Outcome) IsExternal() bool {
	switch o {
	case ExternalValid, ExternalSkipped, ExternalHTTPError, ExternalTimeout, ExternalNetworkError:
		return true
	default:
		return false
	}
}

// Result is the verdict for one link. Results are created once and not
// modified afterwards.
type Result struct {
	Link        parser.Link
	Outcome     Outcome
	IsValid     bool
	Error       string // Non-empty iff !IsValid
	StatusCode  int    // External outcomes only; 0 when skipped or no response
	RedirectURL string // Final URL when the probe was redirected
}

func newResult(link parser.Link, outcome Outcome, errMsg string) Result {
	return Result{
		Link:    link,
		Outcome: outcome,
		IsValid: outcome.IsValid(),
		Error:   errMsg,
	}
}

// IsExternal reports whether the result belongs to the external phase.
func (r Result) IsExternal() bool {
	return r.Outcome.IsExternal()
}

// Broken returns the invalid results, in order.
func Broken(results []Result) []Result {
	var broken []Result
	for _, r := range results {
		if !r.IsValid {
			broken = append(broken, r)
		}
	}
	return broken
}
