package sheetsign

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterDataset(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := NewWriterDataset(&buf)

	for _, out := range []string{"signed_a.xlsx.pdf", "signed_b.xlsx.pdf"} {
		if err := d.Push(context.Background(), Record{Status: StatusSuccess, OutputFile: out}); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}

	want := `{"status":"success","output_file":"signed_a.xlsx.pdf"}` + "\n" +
		`{"status":"success","output_file":"signed_b.xlsx.pdf"}` + "\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterDataset_WriteError(t *testing.T) {
	t.Parallel()

	err := NewWriterDataset(failingWriter{}).Push(context.Background(), Record{Status: StatusSuccess})
	if !errors.Is(err, ErrDataset) {
		t.Errorf("Push() error = %v, want ErrDataset", err)
	}
}

func TestJSONLDataset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "datasets", "default", "results.jsonl")

	for i := 0; i < 2; i++ {
		d, err := OpenJSONLDataset(path)
		if err != nil {
			t.Fatalf("OpenJSONLDataset() error = %v", err)
		}
		if err := d.Push(context.Background(), Record{Status: StatusSuccess, OutputFile: "x.pdf"}); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if err := d.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("file has %d lines, want 2 (append mode):\n%s", n, data)
	}
}

func TestSQLDataset_SQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "results.db")

	d, err := OpenSQLDataset(ctx, DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("OpenSQLDataset() error = %v", err)
	}
	recs := []Record{
		{Status: StatusSuccess, OutputFile: "signed_a.xlsx.pdf"},
		{Status: StatusSuccess, OutputFile: "signed_b.xlsx.pdf"},
	}
	for _, r := range recs {
		if err := d.Push(ctx, r); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening keeps existing rows.
	d, err = OpenSQLDataset(ctx, DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = d.Close() }()

	got, err := d.Records(ctx)
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(got) != 2 || got[0] != recs[0] || got[1] != recs[1] {
		t.Errorf("Records() = %+v, want %+v", got, recs)
	}
}

func TestOpenSQLDataset_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := OpenSQLDataset(context.Background(), "mysql", "x"); !errors.Is(err, ErrInvalidSink) {
		t.Errorf("unknown dialect error = %v, want ErrInvalidSink", err)
	}
	if _, err := OpenSQLDataset(context.Background(), DialectSQLite, ""); !errors.Is(err, ErrInvalidSink) {
		t.Errorf("empty DSN error = %v, want ErrInvalidSink", err)
	}
}
