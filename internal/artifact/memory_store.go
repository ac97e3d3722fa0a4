package artifact

import (
	"context"
	"fmt"
	"sort"
)

// MemoryStore keeps an artifacts tree in memory. It is read-only after construction.
type MemoryStore struct {
	files map[string][]byte
}

// NewMemoryStore copies files, keyed by slash-separated path, into a new store.
func NewMemoryStore(files map[string][]byte) *MemoryStore {
	s := &MemoryStore{files: make(map[string][]byte, len(files))}
	for name, data := range files {
		s.files[name] = append([]byte(nil), data...)
	}
	return s
}

func (s *MemoryStore) Read(_ context.Context, name string) ([]byte, error) {
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
