//go:build integration

package sheetsign

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-sheetsign/internal/testdoc"
)

func TestLibreOfficeConverter_Integration(t *testing.T) {
	c := NewLibreOfficeConverter(os.Getenv("SHEETSIGN_SOFFICE"), 3*time.Minute, zerolog.Nop())
	if _, err := c.Binary(); err != nil {
		t.Skipf("LibreOffice not available: %v", err)
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "report.xlsx")
	xlsx := testdoc.Workbook(t, testdoc.Sheet{
		Name: "Summary",
		Rows: [][]any{{"Quarterly report"}, {"Total", 1200}, {"Signature:"}, {"Date:"}},
	})
	if err := os.WriteFile(src, xlsx, 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	if err := os.Mkdir(out, 0o700); err != nil {
		t.Fatal(err)
	}

	pdfPath, err := c.ToPDF(context.Background(), src, out)
	if err != nil {
		t.Fatalf("ToPDF() error = %v", err)
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := PageCount(data); err != nil || n < 1 {
		t.Errorf("PageCount() = %d, %v", n, err)
	}

	texts := ExtractPageText(data, 1)
	if LocateMarker(texts[0], "Signature:", DefaultLayout()).Status != MarkerFound {
		t.Errorf("Signature: not found in converted text %q (err %v)", texts[0].Lines, texts[0].Err)
	}
}
