package pdflib

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/ledongthuc/pdf"
)

const BackendLedongthuc = "ledongthuc"

type ledongthucLibrary struct {
	client *http.Client
}

func newLedongthuc(opts Options) (Library, error) {
	return &ledongthucLibrary{client: opts.client()}, nil
}

func (*ledongthucLibrary) Name() string { return BackendLedongthuc }

func (l *ledongthucLibrary) Open(ctx context.Context, src Source) (Document, error) {
	data, err := src.bytes(ctx, l.client)
	if err != nil {
		return nil, err
	}
	r, err := openLedongthuc(data)
	if err != nil {
		return nil, err
	}
	return &ledongthucDocument{r: r, pages: r.NumPage()}, nil
}

func openLedongthuc(data []byte) (r *pdf.Reader, err error) {
	defer recoverInto(&err)
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

type ledongthucDocument struct {
	r     *pdf.Reader
	pages int
}

func (d *ledongthucDocument) NumPages() int { return d.pages }

func (d *ledongthucDocument) PageText(ctx context.Context, n int) (runs []string, err error) {
	if err := checkPage(n, d.pages); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer recoverInto(&err)

	p := d.r.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing page object", n)
	}
	content := p.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{Font: t.Font, FontSize: t.FontSize, X: t.X, Y: t.Y, W: t.W, S: t.S})
	}
	return joinRuns(glyphs), nil
}
