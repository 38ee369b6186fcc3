package sheetsign

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store is a key-value blob store holding run inputs and outputs.
type Store interface {
	// Get returns the blob under key. A missing or empty blob is
	// ErrBlobNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Compile-time interface implementation checks.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// maxKeyLength bounds store keys.
const maxKeyLength = 256

// ValidateKey checks that key is usable by every Store implementation:
// non-empty, bounded, and free of path separators and control characters.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	case len(key) > maxKeyLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyLength)
	case key == "." || key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.ContainsAny(key, "/\\"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidKey, key)
		}
	}
	return nil
}

// blob is a stored value with its content type.
type blob struct {
	data        []byte
	contentType string
}

// MemoryStore keeps blobs in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]blob)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	b, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok || len(b.data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	return append([]byte(nil), b.data...), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	s.blobs[key] = blob{data: append([]byte(nil), data...), contentType: contentType}
	s.mu.Unlock()
	return nil
}

// ContentType returns the content type stored with key.
func (s *MemoryStore) ContentType(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	return b.contentType, ok
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
