package ui

import (
	"github.com/goobits/docs-engine-sub003/internal/parser"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// FilesFoundMsg is sent when document discovery has finished.
type FilesFoundMsg struct {
	Err   error
	Files []string
}

// LinksExtractedMsg is sent when links have been extracted from files.
type LinksExtractedMsg struct {
	Err        error
	Links      []parser.Link
	FileErrors []parser.FileError
}

// ResultMsg carries one validation result as soon as it is produced.
type ResultMsg struct {
	Result validation.Result
}

// ValidationDoneMsg is sent when every link has been validated.
type ValidationDoneMsg struct{}
