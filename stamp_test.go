package sheetsign

// Notes:
// - Documents come from internal/testdoc; overlays are merged for real
//   with pdfcpu, so these tests cover the full stamping pass.
// - Stamped text lives in form XObjects, which text extraction does not
//   follow. Placements are checked through StampReport, and positions by
//   reading the content streams back with pdfcpu (cm operands).

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/alnah/go-sheetsign/internal/testdoc"
)

func testImages(t *testing.T) Images {
	t.Helper()
	sig, err := PrepareImage(testdoc.PNG(t, 60, 15))
	if err != nil {
		t.Fatalf("signature image: %v", err)
	}
	blank, err := PrepareImage(testdoc.PNG(t, 40, 5))
	if err != nil {
		t.Fatalf("blank image: %v", err)
	}
	return Images{Signature: sig, Blank: blank}
}

func TestStamp(t *testing.T) {
	t.Parallel()

	images := testImages(t)

	tests := []struct {
		name           string
		pages          [][]string
		pageCap        int
		wantOutput     int
		wantDropped    int
		wantPlacements int
		wantFirstDraws int
	}{
		{
			name:           "twenty pages capped to nineteen",
			pages:          append([][]string{{"Signature:", "Date:"}, {"Signature:"}}, testdoc.NumberedPages(18)...),
			pageCap:        19,
			wantOutput:     19,
			wantDropped:    1,
			wantPlacements: 2,
			wantFirstDraws: 3,
		},
		{
			name:           "nineteen pages kept whole",
			pages:          testdoc.NumberedPages(19),
			pageCap:        19,
			wantOutput:     19,
			wantPlacements: 2,
			wantFirstDraws: 3,
		},
		{
			name:           "twenty-five pages capped to nineteen",
			pages:          testdoc.NumberedPages(25),
			pageCap:        19,
			wantOutput:     19,
			wantDropped:    6,
			wantPlacements: 2,
			wantFirstDraws: 3,
		},
		{
			name:           "single page gets only the first overlay",
			pages:          [][]string{{"Signature:", "Date:"}},
			pageCap:        19,
			wantOutput:     1,
			wantPlacements: 1,
			wantFirstDraws: 3,
		},
		{
			name:           "date already printed",
			pages:          [][]string{{"Signature:", "Date: 01/02/2024"}, {"x"}},
			pageCap:        19,
			wantOutput:     2,
			wantPlacements: 2,
			wantFirstDraws: 1,
		},
		{
			name:           "cap of one drops the second page before stamping",
			pages:          testdoc.NumberedPages(3),
			pageCap:        1,
			wantOutput:     1,
			wantDropped:    2,
			wantPlacements: 1,
			wantFirstDraws: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			layout := DefaultLayout()
			layout.PageCap = tt.pageCap
			src := testdoc.MustPDF(t, tt.pages...)

			got, err := Stamp(context.Background(), src, images, "03/15/2024", StampOptions{
				Layout:  layout,
				WorkDir: t.TempDir(),
			})
			if err != nil {
				t.Fatalf("Stamp() error = %v", err)
			}

			r := got.Report
			if r.SourcePages != len(tt.pages) {
				t.Errorf("SourcePages = %d, want %d", r.SourcePages, len(tt.pages))
			}
			if r.OutputPages != tt.wantOutput || r.Dropped != tt.wantDropped {
				t.Errorf("OutputPages/Dropped = %d/%d, want %d/%d", r.OutputPages, r.Dropped, tt.wantOutput, tt.wantDropped)
			}
			if len(r.Placements) != tt.wantPlacements {
				t.Fatalf("len(Placements) = %d, want %d", len(r.Placements), tt.wantPlacements)
			}
			if r.Placements[0].Draws != tt.wantFirstDraws {
				t.Errorf("page 1 Draws = %d, want %d", r.Placements[0].Draws, tt.wantFirstDraws)
			}

			n, err := PageCount(got.PDF)
			if err != nil || n != tt.wantOutput {
				t.Errorf("PageCount(output) = %d, %v; want %d", n, err, tt.wantOutput)
			}
		})
	}
}

func TestStamp_MarkersLocated(t *testing.T) {
	t.Parallel()

	src := testdoc.MustPDF(t, []string{"Report", "Signature:", "Date:"}, []string{"Signature:"})

	got, err := Stamp(context.Background(), src, testImages(t), "d", StampOptions{Layout: DefaultLayout()})
	if err != nil {
		t.Fatalf("Stamp() error = %v", err)
	}

	first := got.Report.Placements[0]
	if !first.Signature.Found() || first.Signature.Line != 1 {
		t.Errorf("page 1 signature = %+v, want found on line 1", first.Signature)
	}
	if !first.Date.Found() || first.Date.Line != 2 {
		t.Errorf("page 1 date = %+v, want found on line 2", first.Date)
	}
	if second := got.Report.Placements[1]; !second.Signature.Found() || second.Signature.Line != 0 {
		t.Errorf("page 2 signature = %+v, want found on line 0", second.Signature)
	}
}

func TestStamp_Errors(t *testing.T) {
	t.Parallel()

	images := testImages(t)
	src := testdoc.MustPDF(t, []string{"Signature:"})

	t.Run("not a PDF", func(t *testing.T) {
		t.Parallel()

		_, err := Stamp(context.Background(), []byte("%PDF-garbage"), images, "d", StampOptions{Layout: DefaultLayout()})
		if !errors.Is(err, ErrStamp) {
			t.Errorf("error = %v, want ErrStamp", err)
		}
	})

	t.Run("invalid layout", func(t *testing.T) {
		t.Parallel()

		layout := DefaultLayout()
		layout.PageCap = 0
		_, err := Stamp(context.Background(), src, images, "d", StampOptions{Layout: layout})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Stamp(ctx, src, images, "d", StampOptions{Layout: DefaultLayout()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("missing blank image", func(t *testing.T) {
		t.Parallel()

		_, err := Stamp(context.Background(), src, Images{Signature: images.Signature}, "d", StampOptions{Layout: DefaultLayout()})
		if !errors.Is(err, ErrOverlayRender) {
			t.Errorf("error = %v, want ErrOverlayRender", err)
		}
	})
}

func TestStamp_LaterPagesUnchanged(t *testing.T) {
	t.Parallel()

	src := testdoc.MustPDF(t, testdoc.NumberedPages(20)...)
	got, err := Stamp(context.Background(), src, testImages(t), "d", StampOptions{Layout: DefaultLayout()})
	if err != nil {
		t.Fatalf("Stamp() error = %v", err)
	}

	before := ExtractPageText(src, 19)
	after := ExtractPageText(got.PDF, 19)
	for i := 2; i < 19; i++ {
		if after[i].Err != nil {
			t.Fatalf("page %d: %v", i+1, after[i].Err)
		}
		if strings.Join(after[i].Lines, "|") != strings.Join(before[i].Lines, "|") {
			t.Errorf("page %d text = %q, want %q", i+1, after[i].Lines, before[i].Lines)
		}
	}
}

// ---------------------------------------------------------------------------
// TestStamp_OverlayGeometry - Where the overlay lands on the output page
// ---------------------------------------------------------------------------

func TestStamp_OverlayGeometry(t *testing.T) {
	t.Parallel()

	layout := DefaultLayout()
	images := testImages(t)
	src := testdoc.MustPDF(t, []string{"Report"}, []string{"Second page"})

	got, err := Stamp(context.Background(), src, images, "03/15/2024", StampOptions{
		Layout:  layout,
		WorkDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Stamp() error = %v", err)
	}

	t.Run("merged page draws the overlay form untransformed", func(t *testing.T) {
		t.Parallel()

		content := pageContent(t, got.PDF, 1)
		if !strings.Contains(content, " Do") {
			t.Fatalf("page 1 content has no Do operator:\n%s", content)
		}
		if !hasCM(cmOperands(content), [6]float64{1, 0, 0, 1, 0, 0}) {
			t.Errorf("page 1 content has no identity cm:\n%s", content)
		}
	})

	t.Run("overlay images sit at the fallback anchors", func(t *testing.T) {
		t.Parallel()

		plan := planFirstPage(ExtractPageText(src, 1)[0], "03/15/2024", layout)
		overlay, err := renderOverlay(plan, images, layout)
		if err != nil {
			t.Fatalf("renderOverlay() error = %v", err)
		}

		ops := cmOperands(pageContent(t, overlay, 1))
		want := [][6]float64{
			{layout.FirstSignatureSize.Width, 0, 0, layout.FirstSignatureSize.Height, 330, 283},
			{layout.BlankSize.Width, 0, 0, layout.BlankSize.Height, 340, 249},
		}
		for _, w := range want {
			if !hasCM(ops, w) {
				t.Errorf("overlay cm operands %v do not contain %v", ops, w)
			}
		}
	})
}

// pageContent returns the decoded content of one page.
func pageContent(t *testing.T, doc []byte, page int) string {
	t.Helper()

	dir := t.TempDir()
	if err := api.ExtractContent(bytes.NewReader(doc), dir, "doc.pdf", []string{strconv.Itoa(page)}, newPDFConfig()); err != nil {
		t.Fatalf("ExtractContent() error = %v", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no content extracted for page %d (%v)", page, err)
	}
	var b strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f) // #nosec G304 -- test temp dir
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}
		b.Write(data)
	}
	return b.String()
}

// cmOperands collects the six operands of every cm operator.
func cmOperands(content string) [][6]float64 {
	var out [][6]float64
	fields := strings.Fields(content)
	for i, f := range fields {
		if f != "cm" || i < 6 {
			continue
		}
		var m [6]float64
		ok := true
		for j := range m {
			v, err := strconv.ParseFloat(fields[i-6+j], 64)
			if err != nil {
				ok = false
				break
			}
			m[j] = v
		}
		if ok {
			out = append(out, m)
		}
	}
	return out
}

func hasCM(ops [][6]float64, want [6]float64) bool {
	for _, m := range ops {
		match := true
		for j := range m {
			if math.Abs(m[j]-want[j]) > 0.01 {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
