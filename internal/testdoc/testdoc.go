// Package testdoc builds small PDFs, images and workbooks for tests.
package testdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// Line layout of generated pages, in points from the top edge.
const (
	TopMargin = 72.0
	Pitch     = 20.0
	Left      = 72.0
)

// PDF returns a US Letter document with one page per entry, each line of
// an entry printed on its own row.
func PDF(pages ...[]string) ([]byte, error) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont("Helvetica", "", 11)

	for _, lines := range pages {
		doc.AddPage()
		for i, line := range lines {
			doc.Text(Left, TopMargin+float64(i)*Pitch, line)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustPDF is PDF that fails t on error.
func MustPDF(t testing.TB, pages ...[]string) []byte {
	t.Helper()
	data, err := PDF(pages...)
	if err != nil {
		t.Fatalf("testdoc: building PDF: %v", err)
	}
	return data
}

// NumberedPages returns n pages whose only line is "Page <i>".
func NumberedPages(n int) [][]string {
	pages := make([][]string, n)
	for i := range pages {
		pages[i] = []string{fmt.Sprintf("Page %d", i+1)}
	}
	return pages
}

// PNG returns a w x h opaque PNG with a dark diagonal.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	for i := 0; i < w && i < h; i++ {
		img.Set(i, i, color.Black)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("testdoc: encoding PNG: %v", err)
	}
	return buf.Bytes()
}

// Sheet describes one worksheet of Workbook.
type Sheet struct {
	Name   string
	Hidden bool
	Rows   [][]any
}

// Workbook returns an xlsx file holding sheets in order.
func Workbook(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				t.Fatalf("testdoc: renaming sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			t.Fatalf("testdoc: adding sheet %s: %v", sh.Name, err)
		}
		for r, row := range sh.Rows {
			if err := f.SetSheetRow(sh.Name, fmt.Sprintf("A%d", r+1), &row); err != nil {
				t.Fatalf("testdoc: writing %s row %d: %v", sh.Name, r+1, err)
			}
		}
	}
	for _, sh := range sheets {
		if sh.Hidden {
			if err := f.SetSheetVisible(sh.Name, false); err != nil {
				t.Fatalf("testdoc: hiding %s: %v", sh.Name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("testdoc: writing workbook: %v", err)
	}
	return buf.Bytes()
}
