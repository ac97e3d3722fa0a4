package resolver

import (
	"fmt"

	"github.com/seitarof/layout-lens/internal/index"
	"github.com/seitarof/layout-lens/internal/layout"
)

// DefaultMaxDepth bounds nesting of composite types before resolution gives up.
const DefaultMaxDepth = 64

const (
	elementName = "[i]"
	valueName   = "[key]"
)

// Resolver turns indexed declarations into storage layout trees.
type Resolver interface {
	Resolve(idx index.Index, keys []string) ([]layout.TypeReference, error)
	ResolveStorageLayout(fullyQualifiedName string, output []byte) ([]layout.TypeReference, error)
}

// Option configures a Resolver.
type Option func(*resolverImpl)

// WithMaxDepth overrides DefaultMaxDepth. Non-positive values are ignored.
func WithMaxDepth(depth int) Option {
	return func(r *resolverImpl) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithMode selects which part of the compiler output is read.
func WithMode(mode Mode) Option {
	return func(r *resolverImpl) {
		r.mode = mode
	}
}

// WithFallback registers fn to be called whenever ModeAuto cannot use the storage
// layout of a contract and reads the AST instead. reason says why the layout was unusable.
func WithFallback(fn func(fullyQualifiedName string, reason error)) Option {
	return func(r *resolverImpl) {
		r.fallback = fn
	}
}

type resolverImpl struct {
	maxDepth int
	mode     Mode
	fallback func(fullyQualifiedName string, reason error)
}

// New builds a resolver. The returned value holds no per-call state and may be
// shared between goroutines.
func New(opts ...Option) Resolver {
	r := &resolverImpl{maxDepth: DefaultMaxDepth, mode: ModeAuto}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves the declarations named by keys, in order. Constants are skipped.
func (r *resolverImpl) Resolve(idx index.Index, keys []string) ([]layout.TypeReference, error) {
	return r.resolveDeclarations(idx, keys, 0)
}

func (r *resolverImpl) resolveDeclarations(idx index.Index, keys []string, depth int) ([]layout.TypeReference, error) {
	if depth > r.maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", layout.ErrRecursionLimitExceeded, r.maxDepth)
	}
	out := make([]layout.TypeReference, 0, len(keys))
	for _, key := range keys {
		d, err := idx.Declaration(key)
		if err != nil {
			return nil, err
		}
		if d.Constant {
			continue
		}
		ref, err := r.resolveDeclaration(idx, d, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func (r *resolverImpl) resolveDeclaration(idx index.Index, d *index.Declaration, depth int) (layout.TypeReference, error) {
	t, err := idx.Type(d.Type)
	if err != nil {
		return layout.TypeReference{}, wrapField(d.Label, err)
	}
	ref := layout.TypeReference{
		ID:         d.ID,
		Name:       d.Label,
		Type:       d.TypeID,
		TypeName:   d.TypeName,
		Visibility: d.Visibility,
		Slot:       d.Slot,
		Offset:     d.Offset,
	}
	if ref.Type == "" {
		ref.Type = t.TypeID
	}
	if ref.TypeName == "" {
		ref.TypeName = t.Label
	}
	if err := r.shape(idx, &ref, t, depth); err != nil {
		return layout.TypeReference{}, wrapField(d.Label, err)
	}
	return ref, nil
}

// shape fills the kind-specific fields of ref and, for composites, its SubType.
func (r *resolverImpl) shape(idx index.Index, ref *layout.TypeReference, t *index.TypeRecord, depth int) error {
	c := Classify(t)
	ref.Kind = c.Kind
	ref.Length = c.Length
	ref.KeyType = c.KeyType

	var (
		sub []layout.TypeReference
		err error
	)
	switch c.Kind {
	case layout.KindElementary:
		return nil
	case layout.KindStruct:
		sub, err = r.resolveDeclarations(idx, t.Members, depth+1)
	case layout.KindFixedArray, layout.KindDynamicArray:
		sub, err = r.expand(idx, t.Base, elementName, depth+1)
	case layout.KindMapping:
		sub, err = r.expand(idx, t.Value, valueName, depth+1)
	}
	if err != nil {
		return err
	}
	ref.SubType = sub
	return nil
}

// expand resolves the element type of an array or the value type of a mapping.
// Struct members are inlined, an elementary type yields an empty set, and a
// nested array or mapping becomes a single unnamed child.
func (r *resolverImpl) expand(idx index.Index, typeKey string, name string, depth int) ([]layout.TypeReference, error) {
	if depth > r.maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", layout.ErrRecursionLimitExceeded, r.maxDepth)
	}
	t, err := idx.Type(typeKey)
	if err != nil {
		return nil, err
	}
	switch Classify(t).Kind {
	case layout.KindElementary:
		return []layout.TypeReference{}, nil
	case layout.KindStruct:
		return r.resolveDeclarations(idx, t.Members, depth)
	default:
		child := layout.TypeReference{Name: name, Type: t.TypeID, TypeName: t.Label}
		if err := r.shape(idx, &child, t, depth); err != nil {
			return nil, err
		}
		return []layout.TypeReference{child}, nil
	}
}
