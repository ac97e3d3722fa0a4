package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/seitarof/layout-lens/internal/layout"
)

const (
	buildInfoDir      = "build-info"
	artifactFormat    = "hh-sol-artifact-"
	debugFileSuffix   = ".dbg.json"
	defaultCacheSize  = 16
	maxBlobBytes      = 512 << 20
)

// BuildInfo is one hardhat build-info file. Output holds the raw solc output.
type BuildInfo struct {
	ID              string          `json:"id"`
	Format          string          `json:"_format"`
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Output          json.RawMessage `json:"output"`
}

// Provider lists compiled contracts and returns the build that produced them.
type Provider interface {
	FullyQualifiedNames(ctx context.Context) ([]string, error)
	BuildInfo(ctx context.Context, fullyQualifiedName string) (*BuildInfo, error)
}

// BlobStore reads files of an artifacts directory by slash-separated relative path.
type BlobStore interface {
	Read(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

var (
	// ErrBlobNotFound is returned by stores for missing paths.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrBlobTooLarge is returned by stores for files over their size limit.
	ErrBlobTooLarge = errors.New("blob too large")
)

// Option configures a hardhat provider.
type Option func(*HardhatProvider)

// WithCacheSize sets how many decoded build-info files are kept. Zero disables caching.
func WithCacheSize(size int) Option {
	return func(p *HardhatProvider) {
		p.cacheSize = size
	}
}

// CacheStats counts build-info cache lookups.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

// HardhatProvider reads hardhat's artifacts layout: "<source>/<Name>.json" artifacts,
// "<source>/<Name>.dbg.json" debug files pointing at "build-info/<id>.json".
type HardhatProvider struct {
	store     BlobStore
	cacheSize int
	cache     *lru.Cache[string, *BuildInfo]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewHardhatProvider builds a provider over store.
func NewHardhatProvider(store BlobStore, opts ...Option) (*HardhatProvider, error) {
	p := &HardhatProvider{store: store, cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(p)
	}
	if p.cacheSize > 0 {
		cache, err := lru.New[string, *BuildInfo](p.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("init build-info cache: %w", err)
		}
		p.cache = cache
	}
	return p, nil
}

// Stats returns cache counters.
func (p *HardhatProvider) Stats() CacheStats {
	return CacheStats{Hits: p.hits.Load(), Misses: p.misses.Load()}
}

type artifactHeader struct {
	Format       string `json:"_format"`
	ContractName string `json:"contractName"`
	SourceName   string `json:"sourceName"`
}

type debugFile struct {
	BuildInfo string `json:"buildInfo"`
}

// FullyQualifiedNames lists every contract artifact, sorted.
func (p *HardhatProvider) FullyQualifiedNames(ctx context.Context) ([]string, error) {
	files, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	var names []string
	for _, name := range files {
		if !isArtifactFile(name) {
			continue
		}
		raw, err := p.store.Read(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", name, err)
		}
		var h artifactHeader
		if err := json.Unmarshal(raw, &h); err != nil {
			// Other JSON files may live next to artifacts.
			continue
		}
		if !strings.HasPrefix(h.Format, artifactFormat) || h.SourceName == "" || h.ContractName == "" {
			continue
		}
		names = append(names, layout.FullyQualifiedName(h.SourceName, h.ContractName))
	}
	sort.Strings(names)
	return names, nil
}

func isArtifactFile(name string) bool {
	if !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, debugFileSuffix) {
		return false
	}
	return !strings.HasPrefix(name, buildInfoDir+"/")
}

// BuildInfo returns the build that compiled fullyQualifiedName.
func (p *HardhatProvider) BuildInfo(ctx context.Context, fullyQualifiedName string) (*BuildInfo, error) {
	buildInfoPath, err := p.BuildInfoPath(ctx, fullyQualifiedName)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		if bi, ok := p.cache.Get(buildInfoPath); ok {
			p.hits.Add(1)
			return bi, nil
		}
		p.misses.Add(1)
	}

	raw, err := p.store.Read(ctx, buildInfoPath)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, fmt.Errorf("%w: build info %s of %s", layout.ErrNotAvailable, buildInfoPath, fullyQualifiedName)
	}
	if err != nil {
		return nil, fmt.Errorf("read build info %s: %w", buildInfoPath, err)
	}
	var bi BuildInfo
	if err := json.Unmarshal(raw, &bi); err != nil {
		return nil, fmt.Errorf("%w: decode build info %s: %v", layout.ErrMalformedInput, buildInfoPath, err)
	}
	if len(bi.Output) == 0 {
		return nil, fmt.Errorf("%w: build info %s has no output", layout.ErrMalformedInput, buildInfoPath)
	}
	if bi.ID == "" {
		bi.ID = strings.TrimSuffix(path.Base(buildInfoPath), ".json")
	}
	if p.cache != nil {
		p.cache.Add(buildInfoPath, &bi)
	}
	return &bi, nil
}

// BuildInfoPath follows the debug file of a contract to its build-info file.
func (p *HardhatProvider) BuildInfoPath(ctx context.Context, fullyQualifiedName string) (string, error) {
	sourceName, contractName, err := layout.SplitFullyQualifiedName(fullyQualifiedName)
	if err != nil {
		return "", err
	}
	dbgPath := path.Join(sourceName, contractName+debugFileSuffix)
	raw, err := p.store.Read(ctx, dbgPath)
	if errors.Is(err, ErrBlobNotFound) {
		return "", fmt.Errorf("%w: %s has not been compiled", layout.ErrNotAvailable, fullyQualifiedName)
	}
	if err != nil {
		return "", fmt.Errorf("read debug file %s: %w", dbgPath, err)
	}
	var dbg debugFile
	if err := json.Unmarshal(raw, &dbg); err != nil {
		return "", fmt.Errorf("%w: decode debug file %s: %v", layout.ErrMalformedInput, dbgPath, err)
	}
	if strings.TrimSpace(dbg.BuildInfo) == "" {
		return "", fmt.Errorf("%w: debug file %s names no build info", layout.ErrMalformedInput, dbgPath)
	}
	resolved := path.Clean(path.Join(path.Dir(dbgPath), dbg.BuildInfo))
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", fmt.Errorf("%w: build info %s escapes the artifacts directory", layout.ErrMalformedInput, dbg.BuildInfo)
	}
	return resolved, nil
}

// readLimited reads r to the end, failing once more than limit bytes arrive.
func readLimited(r io.Reader, name string, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBlobTooLarge, name, limit)
	}
	return data, nil
}
