package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockParser is a test helper that implements FileParser.
type mockParser struct {
	extensions []string
	parse      func(filename string, content []byte) ([]Link, error)
}

func newMockParser(exts ...string) *mockParser {
	return &mockParser{extensions: exts}
}

func (m *mockParser) Extensions() []string { return m.extensions }

func (m *mockParser) Parse(filename string, content []byte) ([]Link, error) {
	if m.parse != nil {
		return m.parse(filename, content)
	}
	return nil, nil
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("EveryExtension", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		p := newMockParser(".md", ".mdx", ".markdown")
		r.Register(p)

		for _, ext := range []string{".md", "mdx", ".MARKDOWN"} {
			got, ok := r.Get(ext)
			require.True(t, ok, ext)
			assert.Same(t, p, got)
		}
	})

	t.Run("LaterRegistrationWins", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		scan := newMockParser(".md")
		ast := newMockParser(".md")
		r.Register(scan)
		r.Register(ast)

		got, ok := r.Get("md")
		require.True(t, ok)
		assert.Same(t, ast, got)
	})
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(newMockParser(".md", ".mdx"))
	r.Register(newMockParser(".html", ".htm"))

	tests := []struct {
		filename string
		want     bool
	}{
		{"docs/intro.md", true},
		{"CHANGELOG.MD", true},
		{"components/button.mdx", true},
		{"site/index.htm", true},
		{"notes.txt", false},
		{"Makefile", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()
			_, ok := r.GetForFile(tt.filename)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.want, r.HasParser(tt.filename))
		})
	}
}

func TestRegistry_Extensions(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.Empty(t, r.Extensions())

	r.Register(newMockParser(".mdx", "MD"))
	r.Register(newMockParser(".html"))
	assert.Equal(t, []string{".html", ".md", ".mdx"}, r.Extensions())
}
