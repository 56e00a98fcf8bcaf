// Package config loads validation settings from doclinks.config.json or a
// .doclinksrc file in JSON, YAML or TOML. Keys are camelCase in every
// format and values overlay Default().
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// CandidateFileNames are searched, in order, in each directory from the
// start directory up to the filesystem root.
var CandidateFileNames = []string{
	"doclinks.config.json",
	".doclinksrc.json",
	".doclinksrc.yaml",
	".doclinksrc.yml",
	".doclinksrc.toml",
}

// Config holds every recognized setting.
type Config struct {
	BaseDir         string       `json:"baseDir" yaml:"baseDir" toml:"baseDir"`
	Include         []string     `json:"include" yaml:"include" toml:"include" validate:"dive,required"`
	Exclude         []string     `json:"exclude" yaml:"exclude" toml:"exclude" validate:"dive,required"`
	CheckExternal   bool         `json:"checkExternal" yaml:"checkExternal" toml:"checkExternal"`
	Timeout         int          `json:"timeout" yaml:"timeout" toml:"timeout" validate:"gte=1,lte=600000"`
	Concurrency     int          `json:"concurrency" yaml:"concurrency" toml:"concurrency" validate:"gte=1,lte=256"`
	SkipDomains     []string     `json:"skipDomains" yaml:"skipDomains" toml:"skipDomains"`
	ValidExtensions []string     `json:"validExtensions" yaml:"validExtensions" toml:"validExtensions" validate:"dive,startswith=."`
	Ignore          IgnoreConfig `json:"ignore" yaml:"ignore" toml:"ignore"`
	Retries         int          `json:"retries" yaml:"retries" toml:"retries" validate:"gte=0,lte=10"`
	MaxRedirects    int          `json:"maxRedirects" yaml:"maxRedirects" toml:"maxRedirects" validate:"gte=1,lte=50"`
	UserAgent       string       `json:"userAgent" yaml:"userAgent" toml:"userAgent" validate:"required"`
	Parser          string       `json:"parser" yaml:"parser" toml:"parser" validate:"oneof=scan ast"`
	RateLimit       float64      `json:"rateLimit" yaml:"rateLimit" toml:"rateLimit" validate:"gte=0"`
	Strict          bool         `json:"strict" yaml:"strict" toml:"strict"`
}

// IgnoreConfig holds rules for links that are not validated at all.
type IgnoreConfig struct {
	// Domains to ignore (subdomains included).
	Domains []string `json:"domains" yaml:"domains" toml:"domains"`

	// Patterns are glob patterns matched against the link URL.
	// Example: "drafts/*", "https://*.internal/*"
	Patterns []string `json:"patterns" yaml:"patterns" toml:"patterns"`

	// Regex are regular expressions matched against the link URL.
	Regex []string `json:"regex" yaml:"regex" toml:"regex"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &Config{
		BaseDir:         wd,
		Include:         []string{"**/*.md", "**/*.mdx"},
		Exclude:         []string{"**/node_modules/**", "**/dist/**", "**/.git/**"},
		CheckExternal:   false,
		Timeout:         5000,
		Concurrency:     10,
		SkipDomains:     []string{"localhost", "127.0.0.1", "example.com"},
		ValidExtensions: []string{".md", ".mdx"},
		Retries:         0,
		MaxRedirects:    10,
		UserAgent:       "doclinks/1.0",
		Parser:          "scan",
	}
}

// TimeoutDuration returns Timeout as a duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// HasIgnoreRules reports whether any ignore rule is configured.
func (c *Config) HasIgnoreRules() bool {
	return len(c.Ignore.Domains) > 0 || len(c.Ignore.Patterns) > 0 || len(c.Ignore.Regex) > 0
}

// MergeIgnore appends additional ignore rules, typically from CLI flags.
func (c *Config) MergeIgnore(other IgnoreConfig) {
	c.Ignore.Domains = append(c.Ignore.Domains, other.Domains...)
	c.Ignore.Patterns = append(c.Ignore.Patterns, other.Patterns...)
	c.Ignore.Regex = append(c.Ignore.Regex, other.Regex...)
}

// ParseError reports a configuration file that could not be decoded or
// failed validation.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Decode overlays data onto Default(). format is "json", "yaml" or "toml".
func Decode(data []byte, format string) (*Config, error) {
	cfg := Default()
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case "toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FormatForFile returns the decoder name for a config file path.
func FormatForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

// LoadFrom reads and decodes the config file at path. A relative baseDir
// is resolved against the file's directory. Missing files return an error
// wrapping os.ErrNotExist; decode and validation failures return *ParseError.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Decode(data, FormatForFile(path))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if cfg.BaseDir != "" && !filepath.IsAbs(cfg.BaseDir) {
		if abs, err := filepath.Abs(filepath.Join(filepath.Dir(path), cfg.BaseDir)); err == nil {
			cfg.BaseDir = abs
		}
	}
	return cfg, nil
}

// FindConfigFile searches startDir and its parents for the first
// candidate file name. It returns "" when none exists.
func FindConfigFile(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}

	for {
		for _, name := range CandidateFileNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is an explicit config file. When set, the search is skipped and
	// a missing file is an error.
	Path string

	// StartDir is where the search begins. Defaults to the working directory.
	StartDir string

	// NoConfig skips file loading entirely.
	NoConfig bool

	// Logger receives a warning when a file is malformed. Defaults to slog.Default().
	Logger *slog.Logger
}

// Loaded is the outcome of Load.
type Loaded struct {
	Config *Config
	Path   string // File the settings came from; "" for defaults
	Err    error  // Decode error that caused the fallback to defaults
}

// Load resolves the effective configuration. A file that cannot be
// decoded or fails validation is logged and replaced by defaults; only a
// missing explicit path is returned as an error.
func Load(opts LoadOptions) (*Loaded, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NoConfig {
		return &Loaded{Config: Default()}, nil
	}

	path := opts.Path
	if path == "" {
		start := opts.StartDir
		if start == "" {
			start = "."
		}
		path = FindConfigFile(start)
		if path == "" {
			return &Loaded{Config: Default()}, nil
		}
	}

	cfg, err := LoadFrom(path)
	if err == nil {
		opts.Logger.Debug("loaded config", "path", path)
		return &Loaded{Config: cfg, Path: path}, nil
	}

	var perr *ParseError
	if errors.As(err, &perr) {
		opts.Logger.Warn("ignoring invalid config file, using defaults", "path", path, "error", perr.Err)
		return &Loaded{Config: Default(), Path: path, Err: err}, nil
	}
	return nil, err
}
