package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// ErrBinaryContent is returned for files that are not UTF-8 text.
var ErrBinaryContent = errors.New("binary content")

// ErrNoParser is returned for files whose extension has no registered parser.
var ErrNoParser = errors.New("no parser registered")

// FileError records why a single file produced no links.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ExtractOptions configures ExtractFromFiles.
type ExtractOptions struct {
	// Registry selects parsers by extension. Defaults to DefaultRegistry().
	Registry *Registry

	// Logger receives a warning for every file that fails. Defaults to slog.Default().
	Logger *slog.Logger

	// Concurrency bounds the number of files read and parsed at once.
	// Defaults to GOMAXPROCS.
	Concurrency int

	// OnFile is called after each file is processed, from the worker goroutine.
	OnFile func(path string, links int, err error)
}

// ExtractFromFiles parses every file and returns all links in file order.
// A file that cannot be read or parsed contributes no links; its error is
// logged and returned in the FileError slice while other files proceed.
// The returned error is non-nil only when ctx is canceled.
func ExtractFromFiles(ctx context.Context, files []string, opts ExtractOptions) ([]Link, []FileError, error) {
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}

	perFile := make([][]Link, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			links, err := ExtractFile(opts.Registry, path)
			if err != nil {
				errs[i] = err
				opts.Logger.Warn("skipping file", "path", path, "error", err)
			} else {
				perFile[i] = links
			}
			if opts.OnFile != nil {
				opts.OnFile(path, len(links), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	total := 0
	for _, links := range perFile {
		total += len(links)
	}
	all := make([]Link, 0, total)
	var fileErrs []FileError
	for i, links := range perFile {
		if errs[i] != nil {
			fileErrs = append(fileErrs, FileError{Path: files[i], Err: errs[i]})
			continue
		}
		all = append(all, links...)
	}

	return all, fileErrs, nil
}

// ExtractFile reads and parses a single file with the parser registered
// for its extension. Panics raised by the parser are returned as errors.
func ExtractFile(reg *Registry, path string) (links []Link, err error) {
	p, ok := reg.GetForFile(path)
	if !ok {
		return nil, ErrNoParser
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if IsBinary(content) {
		return nil, ErrBinaryContent
	}

	defer func() {
		if r := recover(); r != nil {
			links = nil
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	return p.Parse(path, content)
}

// IsBinary reports whether content looks like binary data rather than text.
func IsBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content)
}
