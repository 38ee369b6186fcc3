package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses embedded only", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver(\"\") error = %v", err)
		}
		if resolver.HasCustomLoader() {
			t.Error("expected no custom loader for empty path")
		}
	})

	t.Run("valid custom path", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if !resolver.HasCustomLoader() {
			t.Error("expected custom loader for valid path")
		}
	})

	t.Run("invalid custom path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssetResolver("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewAssetResolver() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestAssetResolver_LoadStyle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sheet.css"), []byte("custom"), 0o644); err != nil {
		t.Fatal(err)
	}
	resolver, err := NewAssetResolver(dir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	embeddedCompact, err := NewEmbeddedLoader().LoadStyle("compact")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		style   string
		want    string
		wantErr error
	}{
		{name: "custom overrides embedded", style: "sheet", want: "custom"},
		{name: "falls back to embedded", style: "compact", want: embeddedCompact},
		{name: "missing everywhere", style: "nope", wantErr: ErrStyleNotFound},
		{name: "invalid name is not retried", style: "a/b", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolver.LoadStyle(tt.style)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LoadStyle(%q) error = %v, want %v", tt.style, err, tt.wantErr)
			}
			if tt.wantErr == nil && got != tt.want {
				t.Errorf("LoadStyle(%q) = %q, want %q", tt.style, got, tt.want)
			}
		})
	}
}
