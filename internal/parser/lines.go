package parser

import (
	"bytes"
	"sort"
)

// LineIndex maps byte offsets in a document to line and column numbers.
type LineIndex []int

// BuildLineIndex records the byte offset at which each line starts.
func BuildLineIndex(content []byte) LineIndex {
	lines := make(LineIndex, 1, bytes.Count(content, []byte{'\n'})+1)
	for i, b := range content {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// Position converts a byte offset into a 1-indexed line and column.
func (idx LineIndex) Position(offset int) (line, col int) {
	if len(idx) == 0 || offset < 0 {
		return 1, 1
	}
	// Index of the first line starting after offset; the line before it holds offset.
	i := sort.Search(len(idx), func(i int) bool { return idx[i] > offset })
	if i == 0 {
		return 1, offset + 1
	}
	return i, offset - idx[i-1] + 1
}
