package sheetsign

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPageText returns the text lines of the first n pages of src.
// Glyphs sharing a baseline become one line, top to bottom. Failures are
// reported per page through PageText.Err and never abort the caller.
func ExtractPageText(src []byte, n int) []PageText {
	if n <= 0 {
		return nil
	}
	out := make([]PageText, n)

	r, err := openReader(src)
	if err != nil {
		for i := range out {
			out[i].Err = fmt.Errorf("opening PDF: %w", err)
		}
		return out
	}

	total := r.NumPage()
	for i := range out {
		out[i] = readPageText(r, i+1, total)
	}
	return out
}

// openReader parses the trailer and xref. The lexer panics on input it
// cannot tokenize; the panic becomes an error.
func openReader(src []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("%v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(src), int64(len(src)))
}

// readPageText extracts one page. The parser panics on malformed content
// streams and fonts; the panic is turned into PageText.Err.
func readPageText(r *pdf.Reader, num, total int) (text PageText) {
	defer func() {
		if rec := recover(); rec != nil {
			text = PageText{Err: fmt.Errorf("reading page %d: %v", num, rec)}
		}
	}()

	if num > total {
		return PageText{Err: fmt.Errorf("page %d out of range (%d pages)", num, total)}
	}

	p := r.Page(num)
	if p.V.IsNull() {
		return PageText{}
	}
	return PageText{Lines: groupLines(p.Content().Text)}
}

// rowTolerance is how far apart, in points, two baselines can be and still
// count as one line.
const rowTolerance = 2.0

type textRow struct {
	y      float64
	glyphs []pdf.Text
}

// groupLines orders glyphs into lines, top to bottom, each line read left
// to right. Glyph positions come from the full text matrix, so both Tm and
// Td positioned text is handled.
func groupLines(glyphs []pdf.Text) []string {
	var rows []*textRow
	for _, g := range glyphs {
		var row *textRow
		for _, r := range rows {
			if math.Abs(r.y-g.Y) <= rowTolerance {
				row = r
				break
			}
		}
		if row == nil {
			row = &textRow{y: g.Y}
			rows = append(rows, row)
		}
		row.glyphs = append(row.glyphs, g)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })
		var b strings.Builder
		for _, g := range r.glyphs {
			b.WriteString(g.S)
		}
		lines = append(lines, b.String())
	}
	return lines
}
