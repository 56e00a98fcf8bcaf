package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		heading string
		want    string
	}{
		{"Getting Started!", "getting-started"},
		{"Hello World", "hello-world"},
		{"  Padded   Heading  ", "padded-heading"},
		{"API: v2.0 (beta)", "api-v20-beta"},
		{"snake_case and kebab-case", "snake_case-and-kebab-case"},
		{"What's new?", "whats-new"},
		{"A - B", "a---b"},
		{"Café Überblick", "café-überblick"},
		{"日本語 ドキュメント", "日本語-ドキュメント"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Slugify(tt.heading))
		})
	}
}

func TestNormalizeAnchor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "getting-started", NormalizeAnchor("Getting Started"))
	assert.Equal(t, "getting-started", NormalizeAnchor("getting-started"))
	assert.Equal(t, "my-section", NormalizeAnchor("My%20Section"))
	assert.Equal(t, "bad%zz", NormalizeAnchor("BAD%zz"))
}

func TestSlugify_Properties(t *testing.T) {
	t.Parallel()

	heading := rapid.StringMatching(`[A-Za-z0-9 _\-!?.,:()'éüß]{0,40}`)

	t.Run("Idempotent", func(t *testing.T) {
		t.Parallel()
		rapid.Check(t, func(t *rapid.T) {
			s := Slugify(heading.Draw(t, "heading"))
			if again := Slugify(s); again != s {
				t.Fatalf("Slugify(%q) = %q, want idempotent", s, again)
			}
		})
	})

	t.Run("RequestsMatchSlugs", func(t *testing.T) {
		t.Parallel()
		rapid.Check(t, func(t *rapid.T) {
			s := Slugify(heading.Draw(t, "heading"))
			if NormalizeAnchor(s) != s {
				t.Fatalf("NormalizeAnchor(%q) = %q", s, NormalizeAnchor(s))
			}
			if strings.ContainsAny(s, " \t") || s != strings.ToLower(s) {
				t.Fatalf("slug %q has whitespace or uppercase", s)
			}
		})
	})
}

func TestParseAnchors_Markdown(t *testing.T) {
	t.Parallel()

	content := []byte(`# Title

## Getting Started!

### Closing hashes ###

## Install {#custom-install}

## Repeat
## Repeat
## Repeat

<a name="legacy-anchor"></a>
<a id="Mixed_Case"></a>
<span id="span-id"></span>

Not a heading: #hashtag
`)

	set := ParseAnchors("doc.md", content)

	for _, anchor := range []string{
		"title",
		"getting-started",
		"Getting Started",
		"Getting%20Started",
		"closing-hashes",
		"custom-install",
		"install",
		"repeat", "repeat-1", "repeat-2",
		"legacy-anchor",
		"Mixed_Case",
	} {
		assert.True(t, set.Has(anchor), "expected anchor %q", anchor)
	}

	for _, anchor := range []string{"", "missing", "repeat-3", "span-id", "hashtag", "mixed_case-x"} {
		assert.False(t, set.Has(anchor), "unexpected anchor %q", anchor)
	}
}

func TestParseAnchors_HTML(t *testing.T) {
	t.Parallel()

	content := []byte(`<html><body>
<h1 id="top">Top</h1>
<section id="features"><a name="old"></a></section>
<h2>No id</h2>
</body></html>`)

	set := ParseAnchors("page.html", content)
	assert.True(t, set.Has("top"))
	assert.True(t, set.Has("features"))
	assert.True(t, set.Has("old"))
	assert.False(t, set.Has("no-id"))
	assert.Equal(t, 3, set.Len())
}

func TestAnchorIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# One\n"), 0o600))

	idx := NewAnchorIndex()
	assert.True(t, idx.Has(path, "one"))

	// The first read is cached for the rest of the run.
	require.NoError(t, os.WriteFile(path, []byte("# Two\n"), 0o600))
	assert.True(t, idx.Has(path, "one"))
	assert.False(t, idx.Has(path, "two"))

	heading := filepath.Join(dir, "heading.md")
	require.NoError(t, os.WriteFile(heading, []byte("## Getting Started!\n"), 0o600))
	assert.True(t, idx.Has(heading, "Getting Started"))
	assert.True(t, idx.Has(heading, "getting-started"))
	assert.False(t, idx.Has(heading, "other"))

	missing := filepath.Join(dir, "missing.md")
	assert.False(t, idx.Has(missing, "anything"))
	assert.Nil(t, idx.Lookup(missing))
}

func TestSupportsAnchors(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"a.md", "b.MDX", "c.markdown", "d.html", "e.htm"} {
		assert.True(t, SupportsAnchors(p), p)
	}
	for _, p := range []string{"a.pdf", "b.png", "noext"} {
		assert.False(t, SupportsAnchors(p), p)
	}
}
