package sheetsign

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// StatusSuccess is the only status a run pushes; failed runs push nothing.
const StatusSuccess = "success"

// DefaultDatasetPath is the JSONL file of the local storage layout.
const DefaultDatasetPath = "storage/datasets/default/results.jsonl"

// Record is the status record of one completed run.
type Record struct {
	Status     string `json:"status"`
	OutputFile string `json:"output_file"`
}

// Dataset is an append-only sink for run records.
type Dataset interface {
	Push(ctx context.Context, rec Record) error
	Close() error
}

// Compile-time interface implementation checks.
var (
	_ Dataset = (*JSONLDataset)(nil)
	_ Dataset = (*WriterDataset)(nil)
	_ Dataset = (*SQLDataset)(nil)
	_ Dataset = (*RedisDataset)(nil)
	_ Dataset = nopDataset{}
)

// WriterDataset writes one JSON object per line to w.
type WriterDataset struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterDataset returns a dataset writing to w, typically os.Stdout.
func NewWriterDataset(w io.Writer) *WriterDataset {
	return &WriterDataset{w: w}
}

// Push implements Dataset.
func (d *WriterDataset) Push(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encoding record: %v", ErrDataset, err)
	}
	line = append(line, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.w.Write(line); err != nil {
		return fmt.Errorf("%w: writing record: %v", ErrDataset, err)
	}
	return nil
}

// Close implements Dataset. The writer is left open.
func (d *WriterDataset) Close() error {
	return nil
}

// JSONLDataset appends records to a JSON Lines file.
type JSONLDataset struct {
	*WriterDataset
	f *os.File
}

// OpenJSONLDataset opens path for appending, creating parent directories.
func OpenJSONLDataset(path string) (*JSONLDataset, error) {
	if path == "" {
		path = DefaultDatasetPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrDataset, filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) // #nosec G304 -- configured path
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrDataset, path, err)
	}
	return &JSONLDataset{WriterDataset: NewWriterDataset(f), f: f}, nil
}

// Close closes the file.
func (d *JSONLDataset) Close() error {
	if err := d.f.Close(); err != nil {
		return fmt.Errorf("%w: closing: %v", ErrDataset, err)
	}
	return nil
}

// nopDataset drops records. It is the Signer default.
type nopDataset struct{}

func (nopDataset) Push(context.Context, Record) error { return nil }
func (nopDataset) Close() error                       { return nil }
