package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/seitarof/layout-lens/internal/index"
	"github.com/seitarof/layout-lens/internal/layout"
)

// Mode selects the part of the compiler output a layout is read from.
type Mode int

const (
	// ModeAuto reads the storage layout when the contract has one and the AST otherwise.
	ModeAuto Mode = iota
	// ModeAST walks the AST. Only type shape is reported; slots and offsets stay empty.
	ModeAST
	// ModeLayout reads the compiler's storageLayout output, including slots and offsets.
	ModeLayout
)

func (m Mode) String() string {
	switch m {
	case ModeAST:
		return "ast"
	case ModeLayout:
		return "layout"
	default:
		return "auto"
	}
}

// ParseMode parses a mode name as accepted on the command line.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "ast":
		return ModeAST, nil
	case "layout", "storage-layout":
		return ModeLayout, nil
	default:
		return ModeAuto, fmt.Errorf("unknown mode %q (want auto, ast or layout)", s)
	}
}

// ResolveStorageLayout resolves the storage of the contract named by a
// fully-qualified "path:ContractName" from raw compiler output JSON.
func (r *resolverImpl) ResolveStorageLayout(fullyQualifiedName string, output []byte) ([]layout.TypeReference, error) {
	sourceName, contractName, err := layout.SplitFullyQualifiedName(fullyQualifiedName)
	if err != nil {
		return nil, err
	}
	fqn := layout.FullyQualifiedName(sourceName, contractName)

	switch r.mode {
	case ModeAST:
		return r.resolveFromAST(sourceName, contractName, output)
	case ModeLayout:
		idx, err := index.IndexStorageLayouts(output)
		if err != nil {
			return nil, err
		}
		return r.resolveFromLayout(idx, fqn)
	default:
		idx, err := index.IndexStorageLayouts(output)
		if err != nil && !errors.Is(err, layout.ErrMalformedInput) {
			return nil, err
		}
		var reason error
		switch {
		case err != nil:
			reason = err
		case !idx.HasLayout(fqn):
			reason = fmt.Errorf("%w: %s was compiled without storageLayout output", layout.ErrNotAvailable, fqn)
		default:
			refs, err := r.resolveFromLayout(idx, fqn)
			if !errors.Is(err, layout.ErrMalformedInput) {
				return refs, err
			}
			reason = err
		}
		if r.fallback != nil {
			r.fallback(fqn, reason)
		}
		return r.resolveFromAST(sourceName, contractName, output)
	}
}

func (r *resolverImpl) resolveFromLayout(idx *index.LayoutIndex, fqn string) ([]layout.TypeReference, error) {
	c, err := idx.Contract(fqn)
	if err != nil {
		return nil, err
	}
	return r.Resolve(c, c.Storage)
}

// resolveFromAST walks the inheritance chain base-first, resolving each contract's
// own state variables, which matches the order slots are assigned in.
func (r *resolverImpl) resolveFromAST(sourceName, contractName string, output []byte) ([]layout.TypeReference, error) {
	idx, err := index.IndexAST(output)
	if err != nil {
		return nil, err
	}
	c, err := idx.Contract(sourceName, contractName)
	if err != nil {
		return nil, err
	}
	chain := c.Linearized
	if len(chain) == 0 {
		chain = []string{c.Key}
	}

	out := []layout.TypeReference{}
	for i := len(chain) - 1; i >= 0; i-- {
		keys, err := idx.StateVariables(chain[i])
		if err != nil {
			return nil, err
		}
		refs, err := r.Resolve(idx, keys)
		if err != nil {
			return nil, err
		}
		out = append(out, refs...)
	}
	return out, nil
}
