// Package check decides whether a PDF has a text layer that can be
// extracted, or is a scan that needs OCR.
package check

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thywilljoshua/pdfcheck/internal/pdflib"
	"github.com/thywilljoshua/pdfcheck/internal/source"
	"github.com/thywilljoshua/pdfcheck/internal/status"
)

const (
	DefaultMaxPages      = 5
	DefaultMinTextLength = 10
)

const (
	MsgLoadingLibrary = "Loading PDF library..."
	MsgHasText        = "PDF has extractable text"
	MsgNoText         = "PDF does not have extractable text. You will need to OCR it."
)

// Loader yields PDF library entry points by backend name.
type Loader interface {
	Get(ctx context.Context, name string) (pdflib.Library, error)
}

type Config struct {
	Backend     string
	ProxyPrefix string
	// MaxPages bounds how many leading pages are sampled; non-positive
	// values mean DefaultMaxPages. Checking more pages skips past banner
	// pages without text but makes the check slower.
	MaxPages int
	// MinTextLength is the length a page's text must exceed to count.
	// Non-positive values mean DefaultMinTextLength.
	MinTextLength int
	Loader        Loader
}

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = pdflib.BackendRSC
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = DefaultMinTextLength
	}
	if c.Loader == nil {
		c.Loader = pdflib.Default()
	}
	return c
}

// Result is the outcome of one check.
type Result struct {
	Input    string       `json:"input"`
	State    status.State `json:"state"`
	Message  string       `json:"message"`
	HasText  bool         `json:"has_text"`
	Pages    int          `json:"total_pages"`
	Sampled  []string     `json:"sampled_pages,omitempty"`
	Err      string       `json:"error,omitempty"`
	Duration string       `json:"duration"`
}

func (r Result) Failed() bool { return r.State == status.Failure }

// Run checks ref and reports every step to rep. Errors never escape: they
// end the run in the Failure state with the library's error text.
func Run(ctx context.Context, ref source.Ref, cfg Config, rep status.Reporter) Result {
	cfg = cfg.withDefaults()
	if rep == nil {
		rep = status.Discard
	}
	start := time.Now()
	res := Result{Input: ref.Label()}
	report := func(state status.State, msg string) {
		res.State, res.Message = state, msg
		rep.Report(state, msg)
	}
	fail := func(prefix string, err error) Result {
		res.Err = err.Error()
		report(status.Failure, prefix+": "+res.Err)
		res.Duration = time.Since(start).String()
		slog.Warn("PDF check failed", "input", res.Input, "error", err)
		return res
	}

	report(status.LoadingLibrary, MsgLoadingLibrary)
	lib, err := cfg.Loader.Get(ctx, cfg.Backend)
	if err != nil {
		return fail("Failed to load PDF library", err)
	}

	report(status.LoadingDocument, ref.LoadingMessage())
	src, err := source.Resolve(ref, cfg.ProxyPrefix)
	if err != nil {
		return fail("Failed to load PDF", err)
	}
	doc, err := lib.Open(ctx, src)
	if err != nil {
		return fail("Failed to load PDF", err)
	}
	res.Pages = doc.NumPages()

	n := MaxPages(cfg.MaxPages, res.Pages)
	report(status.CheckingPages, fmt.Sprintf("Checking text of first %d pages...", n))
	texts, err := SamplePages(ctx, doc, n)
	if err != nil {
		return fail("Unable to fetch text from pages", err)
	}
	res.Sampled = texts
	res.HasText = HasText(texts, cfg.MinTextLength)
	res.Duration = time.Since(start).String()

	if res.HasText {
		report(status.Success, MsgHasText)
	} else {
		report(status.Success, MsgNoText)
	}
	slog.Debug("PDF check finished", "input", res.Input, "pages", res.Pages, "sampled", n, "has_text", res.HasText, "duration", res.Duration)
	return res
}

// MaxPages is the number of leading pages sampled from a document.
func MaxPages(limit, total int) int {
	return max(0, min(limit, total))
}

// SamplePages fetches the text of pages 1..n concurrently. Each page's runs
// are joined with single spaces. The first failure fails the whole sample;
// pages still in flight finish on their own and are discarded.
func SamplePages(ctx context.Context, doc pdflib.Document, n int) ([]string, error) {
	texts := make([]string, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			start := time.Now()
			runs, err := doc.PageText(gctx, i+1)
			if err != nil {
				return err
			}
			texts[i] = strings.Join(runs, " ")
			slog.Debug("Page sampled", "page", i+1, "chars", len(texts[i]), "elapsed", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// HasText reports whether any page's text is longer than minLength. This is
// a coarse length test: no language detection and no whitespace
// normalization.
func HasText(pages []string, minLength int) bool {
	for _, p := range pages {
		if len(p) > minLength {
			return true
		}
	}
	return false
}
