package pdflib

import (
	"math"
	"strings"
)

// glyph is one positioned string as reported by ledongthuc/pdf, which emits a
// glyph per character.
type glyph struct {
	Font     string
	FontSize float64
	X, Y, W  float64
	S        string
}

// joinRuns merges glyphs into text runs: a run continues while the glyphs
// stay on the same baseline in the same font. A horizontal gap wider than a
// fraction of the font size inside a run becomes a space.
func joinRuns(glyphs []glyph) []string {
	var (
		runs []string
		cur  strings.Builder
		prev *glyph
	)
	flush := func() {
		if cur.Len() > 0 {
			runs = append(runs, cur.String())
			cur.Reset()
		}
	}
	for i := range glyphs {
		g := &glyphs[i]
		if prev != nil {
			sameLine := math.Abs(g.Y-prev.Y) < 0.5*math.Max(prev.FontSize, 1)
			if !sameLine || g.Font != prev.Font {
				flush()
			} else if gap := g.X - (prev.X + prev.W); gap > 0.15*math.Max(prev.FontSize, 1) && !strings.HasSuffix(prev.S, " ") && g.S != " " {
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(g.S)
		prev = g
	}
	flush()
	return runs
}
