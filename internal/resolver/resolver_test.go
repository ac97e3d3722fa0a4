package resolver

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seitarof/layout-lens/internal/index"
	"github.com/seitarof/layout-lens/internal/layout"
)

// memoryIndex is a hand-built arena for resolver unit tests.
type memoryIndex struct {
	decls map[string]*index.Declaration
	types map[string]*index.TypeRecord
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{
		decls: map[string]*index.Declaration{},
		types: map[string]*index.TypeRecord{
			"uint256": {Key: "uint256", TypeID: "t_uint256", Label: "uint256"},
			"address": {Key: "address", TypeID: "t_address", Label: "address"},
		},
	}
}

func (m *memoryIndex) Declaration(key string) (*index.Declaration, error) {
	d, ok := m.decls[key]
	if !ok {
		return nil, fmt.Errorf("%w: declaration %s", layout.ErrUnresolvedReference, key)
	}
	return d, nil
}

func (m *memoryIndex) Type(key string) (*index.TypeRecord, error) {
	t, ok := m.types[key]
	if !ok {
		return nil, fmt.Errorf("%w: type %s", layout.ErrUnresolvedReference, key)
	}
	return t, nil
}

func (m *memoryIndex) addVar(key, label, typeKey string) string {
	m.decls[key] = &index.Declaration{Key: key, ID: key, Label: label, Type: typeKey}
	return key
}

func (m *memoryIndex) addStruct(key, label string, members ...string) {
	m.types[key] = &index.TypeRecord{Key: key, TypeID: "t_struct_" + label, Label: "struct " + label, HasMembers: true, Members: members}
}

// outline renders the shape of a tree: name, [length], (keyType) and {subType}.
func outline(refs []layout.TypeReference) string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		var b strings.Builder
		b.WriteString(r.Name)
		if r.Length != "" {
			b.WriteString("[" + r.Length + "]")
		}
		if r.KeyType != "" {
			b.WriteString("(" + r.KeyType + ")")
		}
		if r.SubType != nil {
			b.WriteString("{" + outline(r.SubType) + "}")
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}

func TestResolve_StructMemberOrder(t *testing.T) {
	idx := newMemoryIndex()
	idx.types["uint256[3]"] = &index.TypeRecord{Key: "uint256[3]", TypeID: "t_array(t_uint256)3_storage", Label: "uint256[3]", Array: true, Length: "3", Base: "uint256"}
	idx.addStruct("S", "S",
		idx.addVar("s.a", "a", "uint256"),
		idx.addVar("s.b", "b", "address"),
		idx.addVar("s.c", "c", "uint256[3]"),
	)
	root := idx.addVar("s", "s", "S")

	refs, err := New().Resolve(idx, []string{root})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, layout.KindStruct, refs[0].Kind)
	assert.Equal(t, "s{a b c[3]{}}", outline(refs))
	assert.Equal(t, "t_struct_S", refs[0].Type, "type signature falls back to the type record")
	assert.Equal(t, "struct S", refs[0].TypeName)
}

func TestResolve_SkipsConstants(t *testing.T) {
	idx := newMemoryIndex()
	idx.addVar("a", "a", "uint256")
	idx.addVar("k", "K", "uint256")
	idx.decls["k"].Constant = true
	idx.addVar("b", "b", "address")

	refs, err := New().Resolve(idx, []string{"a", "k", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a b", outline(refs))
}

func TestResolve_ElementaryOmitsSubType(t *testing.T) {
	idx := newMemoryIndex()
	idx.addVar("a", "a", "uint256")

	refs, err := New().Resolve(idx, []string{"a"})
	require.NoError(t, err)
	assert.Nil(t, refs[0].SubType)
	assert.False(t, refs[0].IsComposite())
}

func TestResolve_ArrayOfStructResolvesElementOnce(t *testing.T) {
	idx := newMemoryIndex()
	idx.addStruct("Point", "Point", idx.addVar("p.x", "x", "uint256"), idx.addVar("p.y", "y", "uint256"))
	idx.types["Point[5]"] = &index.TypeRecord{Key: "Point[5]", Array: true, Length: "5", Base: "Point"}
	idx.addVar("pts", "pts", "Point[5]")

	refs, err := New().Resolve(idx, []string{"pts"})
	require.NoError(t, err)
	assert.Equal(t, "pts[5]{x y}", outline(refs))
	assert.Equal(t, layout.KindFixedArray, refs[0].Kind)
}

func TestResolve_MappingValues(t *testing.T) {
	idx := newMemoryIndex()
	idx.addStruct("Point", "Point", idx.addVar("p.x", "x", "uint256"), idx.addVar("p.y", "y", "uint256"))
	idx.types["m"] = &index.TypeRecord{Key: "m", KeyType: "t_address", Value: "Point"}
	idx.types["n"] = &index.TypeRecord{Key: "n", KeyType: "t_address", Value: "uint256"}
	idx.types["inner"] = &index.TypeRecord{Key: "inner", TypeID: "t_mapping(t_uint256,t_uint256)", Label: "mapping(uint256 => uint256)", KeyType: "t_uint256", Value: "uint256"}
	idx.types["outer"] = &index.TypeRecord{Key: "outer", KeyType: "t_address", Value: "inner"}
	idx.addVar("m", "m", "m")
	idx.addVar("n", "n", "n")
	idx.addVar("o", "o", "outer")

	refs, err := New().Resolve(idx, []string{"m", "n", "o"})
	require.NoError(t, err)
	assert.Equal(t, "m(t_address){x y} n(t_address){} o(t_address){[key](t_uint256){}}", outline(refs))
	assert.NotNil(t, refs[1].SubType, "mapping to an elementary value still has an empty member set")
	assert.Equal(t, "mapping(uint256 => uint256)", refs[2].SubType[0].TypeName)
	assert.Equal(t, layout.KindMapping, refs[2].SubType[0].Kind)
}

func TestResolve_ContractFieldIsNotExpanded(t *testing.T) {
	idx := newMemoryIndex()
	idx.types["Other"] = &index.TypeRecord{Key: "Other", TypeID: "t_contract(Other)3", Label: "contract Other", Contract: true}
	idx.addVar("other", "other", "Other")

	refs, err := New().Resolve(idx, []string{"other"})
	require.NoError(t, err)
	assert.Equal(t, layout.KindElementary, refs[0].Kind)
	assert.Nil(t, refs[0].SubType)
}

func TestResolve_ReusedStructIsNotShared(t *testing.T) {
	idx := newMemoryIndex()
	idx.addStruct("Point", "Point", idx.addVar("p.x", "x", "uint256"))
	idx.addVar("a", "a", "Point")
	idx.addVar("b", "b", "Point")

	refs, err := New().Resolve(idx, []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, refs[0].SubType, refs[1].SubType)

	refs[0].SubType[0].Name = "changed"
	assert.Equal(t, "x", refs[1].SubType[0].Name)
}

func TestResolve_UnresolvedReference(t *testing.T) {
	idx := newMemoryIndex()
	idx.addStruct("Pair", "Pair", idx.addVar("pair.left", "left", "uint128"))
	idx.addVar("p", "p", "Pair")

	refs, err := New().Resolve(idx, []string{"p"})
	require.ErrorIs(t, err, layout.ErrUnresolvedReference)
	assert.Nil(t, refs)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"p", "left"}, fe.Path)
	assert.True(t, strings.HasPrefix(err.Error(), "p.left: "))

	_, err = New().Resolve(idx, []string{"missing"})
	assert.ErrorIs(t, err, layout.ErrUnresolvedReference)
}

func TestResolve_RecursionLimit(t *testing.T) {
	idx := newMemoryIndex()
	idx.types["Node[]"] = &index.TypeRecord{Key: "Node[]", Array: true, Base: "Node"}
	idx.addStruct("Node", "Node", idx.addVar("node.v", "v", "uint256"), idx.addVar("node.children", "children", "Node[]"))
	idx.addVar("root", "root", "Node")

	_, err := New(WithMaxDepth(8)).Resolve(idx, []string{"root"})
	require.ErrorIs(t, err, layout.ErrRecursionLimitExceeded)
	assert.Contains(t, err.Error(), "deeper than 8")

	_, err = New().Resolve(idx, []string{"root"})
	assert.ErrorIs(t, err, layout.ErrRecursionLimitExceeded)
}

func TestResolve_DepthWithinLimit(t *testing.T) {
	idx := newMemoryIndex()
	// Three nested structs need three levels below the root.
	idx.addStruct("C", "C", idx.addVar("c.v", "v", "uint256"))
	idx.addStruct("B", "B", idx.addVar("b.c", "c", "C"))
	idx.addStruct("A", "A", idx.addVar("a.b", "b", "B"))
	idx.addVar("root", "root", "A")

	refs, err := New(WithMaxDepth(3)).Resolve(idx, []string{"root"})
	require.NoError(t, err)
	assert.Equal(t, "root{b{c{v}}}", outline(refs))

	_, err = New(WithMaxDepth(2)).Resolve(idx, []string{"root"})
	assert.ErrorIs(t, err, layout.ErrRecursionLimitExceeded)
}
