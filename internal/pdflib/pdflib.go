// Package pdflib wraps the third-party PDF parsers behind a small API that
// opens a document and hands out the text fragments of single pages.
package pdflib

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownBackend = errors.New("unknown pdf backend")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrEmptySource    = errors.New("empty pdf source")
)

// Source is what a Library can open: either a URL the library fetches
// itself, or bytes that were already read into memory.
type Source struct {
	URL  string
	Data []byte
}

// Library is the entry point of a loaded PDF backend.
type Library interface {
	Name() string
	Open(ctx context.Context, src Source) (Document, error)
}

// Document is an opened PDF. It is owned by a single check and is safe for
// concurrent page requests.
type Document interface {
	NumPages() int
	// PageText returns the text runs of page n (1-based) in content order.
	PageText(ctx context.Context, n int) ([]string, error)
}

// Options configure a backend when it is loaded.
type Options struct {
	Client *http.Client
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

// bytes returns the raw document, fetching it when the source is a URL.
func (s Source) bytes(ctx context.Context, c *http.Client) ([]byte, error) {
	if s.URL != "" {
		return fetch(ctx, c, s.URL)
	}
	if len(s.Data) == 0 {
		return nil, ErrEmptySource
	}
	return s.Data, nil
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed PDF: %v", r)
	}
}

func checkPage(n, total int) error {
	if n < 1 || n > total {
		return fmt.Errorf("page %d of %d: %w", n, total, ErrPageOutOfRange)
	}
	return nil
}
