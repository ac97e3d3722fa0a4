package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DiskStore reads a hardhat artifacts directory on the local filesystem.
type DiskStore struct {
	root     string
	maxBytes int64
}

// NewDiskStore returns a store rooted at dir, usually "<project>/artifacts".
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{root: dir, maxBytes: maxBlobBytes}
}

// NewDiskProvider is a HardhatProvider over a DiskStore.
func NewDiskProvider(dir string, opts ...Option) (*HardhatProvider, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("artifacts directory is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("artifacts directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifacts directory %s is not a directory", dir)
	}
	return NewHardhatProvider(NewDiskStore(dir), opts...)
}

func (s *DiskStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := path.Clean("/" + name)[1:]
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrBlobTooLarge, name, info.Size(), s.maxBytes)
	}
	return readLimited(f, name, s.maxBytes)
}

func (s *DiskStore) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == buildInfoDir {
				return filepath.SkipDir
			}
			return nil
		}
		names = append(names, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
