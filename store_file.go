package sheetsign

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alnah/go-sheetsign/internal/fileutil"
)

// DefaultStoreDir is the local key-value store layout used by the
// platform's storage emulation.
const DefaultStoreDir = "storage/key_value_stores/default"

// FileStore keeps each blob as a file in one directory.
//
// Keys map to file names. A key without a file of the exact same name also
// matches "<key>.<ext>", which is how the local storage layout saves
// records with a content type (INPUT becomes INPUT.json).
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultStoreDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrStore, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- key validated, path inside dir
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStore, key, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrBlobNotFound, key)
	}
	return data, nil
}

// Put implements Store. The file is written atomically under the key name
// unchanged; contentType is not persisted.
func (s *FileStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStore, key, err)
	}
	return nil
}

// resolve returns the exact file for key, or the single best "<key>.*"
// match. Extensions registered for a MIME type win over unknown ones.
func (s *FileStore) resolve(key string) (string, error) {
	exact := filepath.Join(s.dir, key)
	if fileutil.FileExists(exact) {
		return exact, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, escapeGlob(key)+".*"))
	if err != nil {
		return "", fmt.Errorf("%w: listing %s: %v", ErrStore, key, err)
	}

	var candidates []string
	for _, m := range matches {
		if fileutil.FileExists(m) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return exact, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ki := mime.TypeByExtension(filepath.Ext(candidates[i])) != ""
		kj := mime.TypeByExtension(filepath.Ext(candidates[j])) != ""
		if ki != kj {
			return ki
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], nil
}

// escapeGlob quotes glob metacharacters in a key.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[]`, r) {
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
