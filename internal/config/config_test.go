package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// Defaults
// =============================================================================

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, wd, cfg.BaseDir)
	assert.Equal(t, []string{"**/*.md", "**/*.mdx"}, cfg.Include)
	assert.Equal(t, []string{"**/node_modules/**", "**/dist/**", "**/.git/**"}, cfg.Exclude)
	assert.False(t, cfg.CheckExternal)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, []string{"localhost", "127.0.0.1", "example.com"}, cfg.SkipDomains)
	assert.Equal(t, []string{".md", ".mdx"}, cfg.ValidExtensions)
	assert.Equal(t, "scan", cfg.Parser)
	assert.False(t, cfg.HasIgnoreRules())
	assert.NoError(t, cfg.Validate())
}

func TestTimeoutDuration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Timeout = 1500
	assert.Equal(t, 1500*time.Millisecond, cfg.TimeoutDuration())
}

// =============================================================================
// LoadFrom
// =============================================================================

func TestLoadFrom(t *testing.T) {
	t.Parallel()

	t.Run("ValidFullYAML", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadFrom("testdata/valid_full.yaml")
		require.NoError(t, err)

		abs, err := filepath.Abs("testdata/docs")
		require.NoError(t, err)
		assert.Equal(t, abs, cfg.BaseDir)

		assert.Equal(t, []string{"**/*.md"}, cfg.Include)
		assert.Equal(t, []string{"**/vendor/**"}, cfg.Exclude)
		assert.True(t, cfg.CheckExternal)
		assert.Equal(t, 2500, cfg.Timeout)
		assert.Equal(t, 4, cfg.Concurrency)
		assert.Equal(t, []string{".md", ".markdown"}, cfg.ValidExtensions)
		assert.Equal(t, 2, cfg.Retries)
		assert.Equal(t, 5, cfg.MaxRedirects)
		assert.Equal(t, "docs-bot/2.0", cfg.UserAgent)
		assert.Equal(t, "ast", cfg.Parser)
		assert.InDelta(t, 3.5, cfg.RateLimit, 0.001)
		assert.True(t, cfg.Strict)

		assert.Len(t, cfg.Ignore.Domains, 3)
		assert.Contains(t, cfg.Ignore.Domains, "internal.company.com")
		assert.Len(t, cfg.Ignore.Patterns, 2)
		assert.Contains(t, cfg.Ignore.Patterns, "*/internal/*")
		assert.Len(t, cfg.Ignore.Regex, 2)
		assert.Contains(t, cfg.Ignore.Regex, ".*\\.test$")
	})

	t.Run("PartialYAMLKeepsDefaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadFrom("testdata/valid_partial.yaml")
		require.NoError(t, err)

		assert.Equal(t, []string{"example.com"}, cfg.Ignore.Domains)
		assert.Empty(t, cfg.Ignore.Patterns)
		assert.Equal(t, 5000, cfg.Timeout)
		assert.Equal(t, 10, cfg.Concurrency)
		assert.Equal(t, "scan", cfg.Parser)
	})

	t.Run("EmptyYAML", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadFrom("testdata/empty.yaml")
		require.NoError(t, err)
		assert.False(t, cfg.HasIgnoreRules())
		assert.Equal(t, 10, cfg.Concurrency)
	})

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadFrom("testdata/doclinks.config.json")
		require.NoError(t, err)

		assert.True(t, cfg.CheckExternal)
		assert.Equal(t, 1000, cfg.Timeout)
		assert.Equal(t, 8, cfg.Concurrency)
		assert.Equal(t, []string{"internal.test"}, cfg.SkipDomains)
		assert.Equal(t, []string{"https://drafts.*"}, cfg.Ignore.Patterns)
		assert.Equal(t, []string{".md", ".mdx"}, cfg.ValidExtensions)
	})

	t.Run("TOML", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadFrom("testdata/valid.toml")
		require.NoError(t, err)

		assert.True(t, cfg.CheckExternal)
		assert.Equal(t, 7000, cfg.Timeout)
		assert.Equal(t, 3, cfg.Concurrency)
		assert.Equal(t, "ast", cfg.Parser)
		assert.Equal(t, []string{".md", ".mdx", ".markdown"}, cfg.ValidExtensions)
		assert.Equal(t, []string{"example.org"}, cfg.Ignore.Domains)
		assert.Equal(t, []string{"^mailto:"}, cfg.Ignore.Regex)
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadFrom("testdata/nonexistent.yaml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.True(t, errors.Is(err, os.ErrNotExist))

		var perr *ParseError
		assert.False(t, errors.As(err, &perr))
	})

	for _, file := range []string{"invalid.yaml", "invalid.json", "invalid.toml"} {
		t.Run("Malformed/"+file, func(t *testing.T) {
			t.Parallel()
			cfg, err := LoadFrom(filepath.Join("testdata", file))
			require.Error(t, err)
			assert.Nil(t, cfg)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, filepath.Join("testdata", file), perr.Path)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}

	t.Run("ValidationFailure", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFrom("testdata/bad_value.yaml")
		require.Error(t, err)

		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Contains(t, err.Error(), "Concurrency")
		assert.Contains(t, err.Error(), "Parser")
	})
}

// =============================================================================
// Validate
// =============================================================================

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Defaults", func(*Config) {}, ""},
		{"ZeroTimeout", func(c *Config) { c.Timeout = 0 }, "Timeout"},
		{"HugeConcurrency", func(c *Config) { c.Concurrency = 1000 }, "Concurrency"},
		{"NegativeRetries", func(c *Config) { c.Retries = -1 }, "Retries"},
		{"UnknownParser", func(c *Config) { c.Parser = "regex" }, "Parser"},
		{"ExtensionWithoutDot", func(c *Config) { c.ValidExtensions = []string{"md"} }, "ValidExtensions"},
		{"EmptyIncludePattern", func(c *Config) { c.Include = []string{""} }, "Include"},
		{"EmptyUserAgent", func(c *Config) { c.UserAgent = "" }, "UserAgent"},
		{"NegativeRateLimit", func(c *Config) { c.RateLimit = -1 }, "RateLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("x"), "ini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestFormatForFile(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"doclinks.config.json": "json",
		".doclinksrc.json":     "json",
		".doclinksrc.yaml":     "yaml",
		".doclinksrc.YML":      "yaml",
		".doclinksrc.toml":     "toml",
		".doclinksrc":          "json",
	}
	for name, want := range tests {
		assert.Equal(t, want, FormatForFile(name), name)
	}
}

// =============================================================================
// Discovery
// =============================================================================

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("InCurrentDir", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFile(t, dir, ".doclinksrc.yaml", "timeout: 100\n")
		assert.Equal(t, path, FindConfigFile(dir))
	})

	t.Run("InParentDir", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFile(t, dir, ".doclinksrc.toml", "timeout = 100\n")
		sub := filepath.Join(dir, "a", "b")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		assert.Equal(t, path, FindConfigFile(sub))
	})

	t.Run("CandidateOrder", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, dir, ".doclinksrc.yaml", "timeout: 100\n")
		path := writeFile(t, dir, "doclinks.config.json", "{}")
		assert.Equal(t, path, FindConfigFile(dir))
	})

	t.Run("NearestWins", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, dir, "doclinks.config.json", "{}")
		nested := writeFile(t, dir, "sub/.doclinksrc.yml", "timeout: 100\n")
		assert.Equal(t, nested, FindConfigFile(filepath.Join(dir, "sub")))
	})

	t.Run("DirectoryNamedLikeConfig", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, ".doclinksrc.json"), 0o755))
		path := writeFile(t, dir, ".doclinksrc.yaml", "timeout: 100\n")
		assert.Equal(t, path, FindConfigFile(dir))
	})
}

// =============================================================================
// Load
// =============================================================================

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("NoConfig", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, dir, "doclinks.config.json", `{"timeout": 1}`)

		loaded, err := Load(LoadOptions{StartDir: dir, NoConfig: true})
		require.NoError(t, err)
		assert.Equal(t, 5000, loaded.Config.Timeout)
		assert.Empty(t, loaded.Path)
	})

	t.Run("Discovered", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFile(t, dir, "doclinks.config.json", `{"timeout": 1234}`)

		loaded, err := Load(LoadOptions{StartDir: dir})
		require.NoError(t, err)
		assert.Equal(t, path, loaded.Path)
		assert.Equal(t, 1234, loaded.Config.Timeout)
		assert.NoError(t, loaded.Err)
	})

	t.Run("ExplicitPath", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFile(t, dir, "custom.yaml", "concurrency: 2\n")

		loaded, err := Load(LoadOptions{Path: path})
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Config.Concurrency)
	})

	t.Run("ExplicitMissingPathIsError", func(t *testing.T) {
		t.Parallel()
		_, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "missing.json")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("MalformedFallsBackToDefaults", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFile(t, dir, "doclinks.config.json", `{"timeout": `)

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

		loaded, err := Load(LoadOptions{StartDir: dir, Logger: logger})
		require.NoError(t, err)
		assert.Equal(t, path, loaded.Path)
		assert.Equal(t, 5000, loaded.Config.Timeout)

		var perr *ParseError
		assert.True(t, errors.As(loaded.Err, &perr))
		assert.Contains(t, buf.String(), "ignoring invalid config file")
		assert.Contains(t, buf.String(), "level=WARN")
	})

	t.Run("NoFileFound", func(t *testing.T) {
		t.Parallel()
		// t.TempDir lives under the system temp dir, which holds no config
		// files in a clean environment.
		loaded, err := Load(LoadOptions{StartDir: t.TempDir(), Logger: slog.New(slog.DiscardHandler)})
		require.NoError(t, err)
		require.NotNil(t, loaded.Config)
	})
}

// =============================================================================
// Ignore rules
// =============================================================================

func TestMergeIgnore(t *testing.T) {
	t.Parallel()

	t.Run("AppendsRules", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Ignore = IgnoreConfig{
			Domains:  []string{"example.com"},
			Patterns: []string{"*.local/*"},
		}

		cfg.MergeIgnore(IgnoreConfig{
			Domains: []string{"localhost"},
			Regex:   []string{".*\\.test$"},
		})

		assert.Equal(t, []string{"example.com", "localhost"}, cfg.Ignore.Domains)
		assert.Equal(t, []string{"*.local/*"}, cfg.Ignore.Patterns)
		assert.Equal(t, []string{".*\\.test$"}, cfg.Ignore.Regex)
		assert.True(t, cfg.HasIgnoreRules())
	})

	t.Run("EmptyMergeKeepsRules", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Ignore.Domains = []string{"example.com"}
		cfg.MergeIgnore(IgnoreConfig{})
		assert.Equal(t, []string{"example.com"}, cfg.Ignore.Domains)
	})
}
