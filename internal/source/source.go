// Package source turns user input (a remote URL or a local file) into
// something a PDF library can open.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thywilljoshua/pdfcheck/internal/pdflib"
)

// DefaultProxyPrefix adds permissive CORS headers to any URL appended to it.
const DefaultProxyPrefix = "https://cors-anywhere.herokuapp.com/"

var ErrEmptyInput = errors.New("empty input")

type Kind int

const (
	KindURL Kind = iota
	KindFile
)

// Ref is the input of one check: either a remote URL or a local file.
// Open is only set for files.
type Ref struct {
	Kind Kind
	URL  string
	Name string
	Open func() (io.ReadCloser, error)
}

func URL(u string) Ref {
	return Ref{Kind: KindURL, URL: u}
}

// File refers to a file on disk.
func File(path string) Ref {
	return Ref{
		Kind: KindFile,
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// Upload refers to a file that only exists as a stream, e.g. a multipart
// upload.
func Upload(name string, open func() (io.ReadCloser, error)) Ref {
	return Ref{Kind: KindFile, Name: name, Open: open}
}

// Parse classifies a command line argument: anything with an http or https
// scheme is a URL, everything else a file path.
func Parse(arg string) (Ref, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Ref{}, ErrEmptyInput
	}
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return URL(arg), nil
	}
	return File(arg), nil
}

// Label is how the input is named in status messages.
func (r Ref) Label() string {
	if r.Kind == KindURL {
		return r.URL
	}
	return r.Name
}

// LoadingMessage is the status shown while the document is being opened.
func (r Ref) LoadingMessage() string {
	if r.Kind == KindURL {
		return fmt.Sprintf("Loading PDF from %s...", r.URL)
	}
	return fmt.Sprintf("Loading PDF from %s", r.Name)
}

// ProxyURL wraps u in the proxy prefix. An empty prefix leaves u untouched.
func ProxyURL(prefix, u string) string {
	return prefix + u
}

// Resolve produces the library source for r. URLs are proxied and left for
// the library to fetch; files are read fully into memory.
func Resolve(r Ref, proxyPrefix string) (pdflib.Source, error) {
	switch r.Kind {
	case KindURL:
		if strings.TrimSpace(r.URL) == "" {
			return pdflib.Source{}, ErrEmptyInput
		}
		return pdflib.Source{URL: ProxyURL(proxyPrefix, r.URL)}, nil
	case KindFile:
		if r.Open == nil {
			return pdflib.Source{}, ErrEmptyInput
		}
		rc, err := r.Open()
		if err != nil {
			return pdflib.Source{}, fmt.Errorf("opening %s: %w", r.Name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return pdflib.Source{}, fmt.Errorf("reading %s: %w", r.Name, err)
		}
		return pdflib.Source{Data: data}, nil
	default:
		return pdflib.Source{}, fmt.Errorf("unknown input kind %d", r.Kind)
	}
}
