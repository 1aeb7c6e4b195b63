package pdflib

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	rpdf "rsc.io/pdf"
)

const BackendRSC = "rsc"

type rscLibrary struct {
	client *http.Client
}

func newRSC(opts Options) (Library, error) {
	return &rscLibrary{client: opts.client()}, nil
}

func (*rscLibrary) Name() string { return BackendRSC }

func (l *rscLibrary) Open(ctx context.Context, src Source) (Document, error) {
	data, err := src.bytes(ctx, l.client)
	if err != nil {
		return nil, err
	}
	r, err := openRSC(data)
	if err != nil {
		return nil, err
	}
	return &rscDocument{r: r, pages: r.NumPage()}, nil
}

func openRSC(data []byte) (r *rpdf.Reader, err error) {
	defer recoverInto(&err)
	return rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

type rscDocument struct {
	r     *rpdf.Reader
	pages int
}

func (d *rscDocument) NumPages() int { return d.pages }

func (d *rscDocument) PageText(ctx context.Context, n int) (runs []string, err error) {
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
	return showStrings(p), nil
}

// kernSpace is the TJ adjustment, in thousandths of an em, from which a
// gap reads as a word break.
const kernSpace = 200

// showStrings runs the page's text operators and decodes each shown string
// with its font's encoding. Page.Content skips space glyphs and cannot place
// glyphs of fonts without a Widths array, so word breaks would be lost.
// A run ends at every line move, font change or text object end.
func showStrings(p rpdf.Page) []string {
	var (
		runs []string
		cur  strings.Builder
		enc  rpdf.TextEncoding
	)
	flush := func() {
		if cur.Len() > 0 {
			runs = append(runs, cur.String())
			cur.Reset()
		}
	}
	show := func(v rpdf.Value) {
		raw := v.RawString()
		if enc != nil {
			raw = enc.Decode(raw)
		}
		cur.WriteString(raw)
	}
	space := func() {
		if cur.Len() > 0 && !strings.HasSuffix(cur.String(), " ") {
			cur.WriteByte(' ')
		}
	}

	interpret := func(strm rpdf.Value) {
		rpdf.Interpret(strm, func(stk *rpdf.Stack, op string) {
			args := make([]rpdf.Value, stk.Len())
			for i := len(args) - 1; i >= 0; i-- {
				args[i] = stk.Pop()
			}
			switch op {
			case "Tf":
				if len(args) == 2 {
					flush()
					enc = p.Font(args[0].Name()).Encoder()
				}
			case "Td", "TD":
				if len(args) == 2 && args[1].Float64() != 0 {
					flush()
				} else {
					space()
				}
			case "T*", "Tm", "ET":
				flush()
			case "Tj":
				if len(args) == 1 {
					show(args[0])
				}
			case "'":
				flush()
				if len(args) == 1 {
					show(args[0])
				}
			case "\"":
				flush()
				if len(args) == 3 {
					show(args[2])
				}
			case "TJ":
				if len(args) != 1 {
					return
				}
				arr := args[0]
				for i := range arr.Len() {
					switch e := arr.Index(i); e.Kind() {
					case rpdf.String:
						show(e)
					case rpdf.Integer, rpdf.Real:
						if -e.Float64() >= kernSpace {
							space()
						}
					}
				}
			}
		})
	}

	contents := p.V.Key("Contents")
	if contents.Kind() == rpdf.Array {
		for i := range contents.Len() {
			interpret(contents.Index(i))
		}
	} else {
		interpret(contents)
	}
	flush()
	return runs
}
