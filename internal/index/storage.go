package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum-optimism/optimism/op-chain-ops/solc"

	"github.com/seitarof/layout-lens/internal/layout"
)

// LayoutIndex holds the compiler-native storage layouts of a build, keyed by
// fully-qualified contract name. Layouts stay undecoded until a contract is requested.
type LayoutIndex struct {
	layouts map[string]json.RawMessage
}

type compilerOutput struct {
	Contracts map[string]map[string]struct {
		StorageLayout json.RawMessage `json:"storageLayout"`
	} `json:"contracts"`
}

// storageLayout is solc's layout with top-level slots kept as decimal strings:
// a slot is a uint256 and "layout at" bases do not fit a uint. Member slots are
// relative to their struct and decode through the solc types.
type storageLayout struct {
	Storage []storageEntry                    `json:"storage"`
	Types   map[string]solc.StorageLayoutType `json:"types"`
}

type storageEntry struct {
	AstID  uint   `json:"astId"`
	Label  string `json:"label"`
	Offset uint   `json:"offset"`
	Slot   string `json:"slot"`
	Type   string `json:"type"`
}

func memberEntry(m solc.StorageLayoutEntry) storageEntry {
	return storageEntry{
		AstID:  m.AstId,
		Label:  m.Label,
		Offset: m.Offset,
		Slot:   strconv.FormatUint(uint64(m.Slot), 10),
		Type:   m.Type,
	}
}

// IndexStorageLayouts decodes the contracts table of compiler output JSON and
// re-keys every contract's storage layout under "sourceUnit:contractName".
func IndexStorageLayouts(output []byte) (*LayoutIndex, error) {
	var out compilerOutput
	dec := json.NewDecoder(bytes.NewReader(output))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode compiler output: %v", layout.ErrMalformedInput, err)
	}
	if out.Contracts == nil {
		return nil, fmt.Errorf("%w: compiler output has no contracts", layout.ErrMalformedInput)
	}

	idx := &LayoutIndex{layouts: map[string]json.RawMessage{}}
	for source, contracts := range out.Contracts {
		for name, c := range contracts {
			idx.layouts[layout.FullyQualifiedName(source, name)] = c.StorageLayout
		}
	}
	return idx, nil
}

// HasLayout reports whether fqn was compiled with storage layout output.
func (x *LayoutIndex) HasLayout(fqn string) bool {
	raw, ok := x.layouts[fqn]
	return ok && !isNull(raw)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Contract decodes one contract's storage layout and builds its declaration arena.
func (x *LayoutIndex) Contract(fqn string) (*ContractLayout, error) {
	raw, ok := x.layouts[fqn]
	if !ok {
		return nil, fmt.Errorf("%w: contract %q", layout.ErrNotFound, fqn)
	}
	if isNull(raw) {
		return nil, fmt.Errorf("%w: %s was compiled without storageLayout output", layout.ErrNotAvailable, fqn)
	}
	var l storageLayout
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("%w: decode storage layout of %s: %v", layout.ErrMalformedInput, fqn, err)
	}
	return newContractLayout(fqn, &l), nil
}

// ContractLayout is the arena for one contract. The type table is kept verbatim;
// storage entries and struct members are materialised as declarations.
type ContractLayout struct {
	Name    string
	Storage []string
	Types   map[string]solc.StorageLayoutType

	decls map[string]*Declaration
}

func newContractLayout(fqn string, l *storageLayout) *ContractLayout {
	c := &ContractLayout{
		Name:  fqn,
		Types: l.Types,
		decls: map[string]*Declaration{},
	}
	for i, entry := range l.Storage {
		key := "storage#" + strconv.Itoa(i)
		c.decls[key] = c.declaration(key, entry)
		c.Storage = append(c.Storage, key)
	}
	for typeKey, t := range l.Types {
		for i, member := range t.Members {
			key := memberKey(typeKey, i)
			c.decls[key] = c.declaration(key, memberEntry(member))
		}
	}
	return c
}

func (c *ContractLayout) declaration(key string, e storageEntry) *Declaration {
	offset := int(e.Offset)
	d := &Declaration{
		Key:    key,
		ID:     strconv.FormatUint(uint64(e.AstID), 10),
		Label:  e.Label,
		Type:   e.Type,
		TypeID: e.Type,
		Slot:   e.Slot,
		Offset: &offset,
	}
	if t, ok := c.Types[e.Type]; ok {
		d.TypeName = t.Label
	}
	return d
}

func memberKey(typeKey string, i int) string {
	return typeKey + "#" + strconv.Itoa(i)
}

func (c *ContractLayout) Declaration(key string) (*Declaration, error) {
	d, ok := c.decls[key]
	if !ok {
		return nil, fmt.Errorf("%w: declaration %s in %s", layout.ErrUnresolvedReference, key, c.Name)
	}
	return d, nil
}

func (c *ContractLayout) Type(key string) (*TypeRecord, error) {
	t, ok := c.Types[key]
	if !ok {
		return nil, fmt.Errorf("%w: type %s in %s", layout.ErrUnresolvedReference, key, c.Name)
	}
	rec := &TypeRecord{
		Key:      key,
		TypeID:   key,
		Label:    t.Label,
		Contract: strings.HasPrefix(key, "t_contract("),
	}
	switch {
	case t.Encoding == "mapping":
		rec.KeyType = t.Key
		rec.Value = t.Value
	case t.Base != "":
		rec.Array = true
		rec.Base = t.Base
		if t.Encoding != "dynamic_array" {
			rec.Length = trailingBound(t.Label)
			if rec.Length == "" {
				return nil, fmt.Errorf("%w: cannot determine array length of %q", layout.ErrMalformedInput, t.Label)
			}
		}
	case len(t.Members) > 0 || strings.HasPrefix(key, "t_struct("):
		rec.HasMembers = true
		rec.Members = make([]string, 0, len(t.Members))
		for i := range t.Members {
			rec.Members = append(rec.Members, memberKey(key, i))
		}
	}
	return rec, nil
}
