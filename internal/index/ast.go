package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/seitarof/layout-lens/internal/layout"
)

// ASTIndex indexes every AST node of a compiler output by its id.
type ASTIndex struct {
	nodes   map[string]map[string]any
	sources map[string]map[string]any
}

// ContractNode is a located ContractDefinition.
type ContractNode struct {
	Key        string
	SourceName string
	Name       string
	// Linearized lists base contract keys most-derived first, as emitted by the compiler.
	Linearized []string
}

// IndexAST decodes compiler output JSON and indexes the AST of every source unit.
func IndexAST(output []byte) (*ASTIndex, error) {
	var root map[string]any
	dec := json.NewDecoder(bytes.NewReader(output))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: decode compiler output: %v", layout.ErrMalformedInput, err)
	}
	sources, ok := root["sources"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: compiler output has no sources", layout.ErrMalformedInput)
	}

	idx := &ASTIndex{
		nodes:   map[string]map[string]any{},
		sources: make(map[string]map[string]any, len(sources)),
	}
	for name, raw := range sources {
		src, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: source %q is not an object", layout.ErrMalformedInput, name)
		}
		ast, ok := src["ast"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: source %q has no ast", layout.ErrMalformedInput, name)
		}
		idx.sources[name] = ast
	}
	// Source entries carry their own small "id" that would collide with node ids,
	// so only the ASTs are walked.
	for _, ast := range idx.sources {
		idx.walk(ast)
	}
	return idx, nil
}

func (x *ASTIndex) walk(v any) {
	switch n := v.(type) {
	case map[string]any:
		if id, ok := nodeID(n["id"]); ok {
			x.nodes[id] = n
		}
		for _, child := range n {
			x.walk(child)
		}
	case []any:
		for _, child := range n {
			x.walk(child)
		}
	}
}

// Contract finds the ContractDefinition called name. A non-empty sourceName restricts
// the search to that source unit; otherwise a name defined in several units is ambiguous.
func (x *ASTIndex) Contract(sourceName, name string) (*ContractNode, error) {
	var names []string
	if sourceName != "" {
		if _, ok := x.sources[sourceName]; !ok {
			return nil, fmt.Errorf("%w: source %q", layout.ErrNotFound, sourceName)
		}
		names = []string{sourceName}
	} else {
		names = make([]string, 0, len(x.sources))
		for n := range x.sources {
			names = append(names, n)
		}
		sort.Strings(names)
	}

	var found []*ContractNode
	for _, src := range names {
		for _, child := range list(x.sources[src], "nodes") {
			n, ok := child.(map[string]any)
			if !ok || str(n, "nodeType") != "ContractDefinition" || str(n, "name") != name {
				continue
			}
			key, _ := nodeID(n["id"])
			c := &ContractNode{Key: key, SourceName: src, Name: name}
			for _, base := range list(n, "linearizedBaseContracts") {
				if id, ok := nodeID(base); ok {
					c.Linearized = append(c.Linearized, id)
				}
			}
			found = append(found, c)
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: contract %q", layout.ErrNotFound, name)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf(
			"%w: more than one path found for %s (%d candidates), please use full path like \"contracts/target.sol:ContractName\"",
			layout.ErrAmbiguousName, name, len(found),
		)
	}
}

// StateVariables returns the keys of the variables declared directly in a contract,
// in source order. Inherited variables are not included.
func (x *ASTIndex) StateVariables(contractKey string) ([]string, error) {
	n, ok := x.nodes[contractKey]
	if !ok {
		return nil, fmt.Errorf("%w: contract id %s", layout.ErrUnresolvedReference, contractKey)
	}
	if str(n, "nodeType") != "ContractDefinition" {
		return nil, fmt.Errorf("%w: node %s is a %s, not a contract", layout.ErrUnresolvedReference, contractKey, str(n, "nodeType"))
	}
	var keys []string
	for _, child := range list(n, "nodes") {
		m, ok := child.(map[string]any)
		if !ok || str(m, "nodeType") != "VariableDeclaration" {
			continue
		}
		if id, ok := nodeID(m["id"]); ok {
			keys = append(keys, id)
		}
	}
	return keys, nil
}

func (x *ASTIndex) Declaration(key string) (*Declaration, error) {
	n, ok := x.nodes[key]
	if !ok {
		return nil, fmt.Errorf("%w: declaration %s", layout.ErrUnresolvedReference, key)
	}
	if str(n, "nodeType") != "VariableDeclaration" {
		return nil, fmt.Errorf("%w: node %s is a %s, not a variable declaration", layout.ErrUnresolvedReference, key, str(n, "nodeType"))
	}
	typeName := obj(n, "typeName")
	typeKey, ok := nodeID(typeName["id"])
	if !ok {
		return nil, fmt.Errorf("%w: declaration %s has no type name", layout.ErrUnresolvedReference, key)
	}
	desc := obj(n, "typeDescriptions")
	constant, _ := n["constant"].(bool)
	// Immutables live in code, not storage.
	if m := str(n, "mutability"); m == "constant" || m == "immutable" {
		constant = true
	}
	return &Declaration{
		Key:        key,
		ID:         key,
		Label:      str(n, "name"),
		Type:       typeKey,
		TypeID:     str(desc, "typeIdentifier"),
		TypeName:   str(desc, "typeString"),
		Visibility: str(n, "visibility"),
		Constant:   constant,
	}, nil
}

func (x *ASTIndex) Type(key string) (*TypeRecord, error) {
	n, ok := x.nodes[key]
	if !ok {
		return nil, fmt.Errorf("%w: type %s", layout.ErrUnresolvedReference, key)
	}
	desc := obj(n, "typeDescriptions")
	rec := &TypeRecord{
		Key:    key,
		TypeID: str(desc, "typeIdentifier"),
		Label:  str(desc, "typeString"),
	}

	switch str(n, "nodeType") {
	case "UserDefinedTypeName":
		ref, ok := nodeID(n["referencedDeclaration"])
		if !ok {
			return nil, fmt.Errorf("%w: type %s has no referenced declaration", layout.ErrUnresolvedReference, key)
		}
		target, ok := x.nodes[ref]
		if !ok {
			return nil, fmt.Errorf("%w: declaration %s referenced by type %s", layout.ErrUnresolvedReference, ref, key)
		}
		switch str(target, "nodeType") {
		case "StructDefinition":
			rec.HasMembers = true
			rec.Members = []string{}
			for _, m := range list(target, "members") {
				if id, ok := nodeID(asObject(m)["id"]); ok {
					rec.Members = append(rec.Members, id)
				}
			}
		case "ContractDefinition":
			rec.Contract = true
		}
	case "ArrayTypeName":
		rec.Array = true
		base, ok := nodeID(obj(n, "baseType")["id"])
		if !ok {
			return nil, fmt.Errorf("%w: array type %s has no base type", layout.ErrUnresolvedReference, key)
		}
		rec.Base = base
		if n["length"] != nil {
			length, err := arrayLength(obj(n, "length"), rec.Label)
			if err != nil {
				return nil, fmt.Errorf("array type %s: %w", key, err)
			}
			rec.Length = length
		}
	case "Mapping":
		rec.KeyType = str(obj(obj(n, "keyType"), "typeDescriptions"), "typeIdentifier")
		value, ok := nodeID(obj(n, "valueType")["id"])
		if !ok {
			return nil, fmt.Errorf("%w: mapping type %s has no value type", layout.ErrUnresolvedReference, key)
		}
		rec.Value = value
	}
	return rec, nil
}

// arrayLength reads a fixed bound from a literal length expression. Bounds given
// as constant expressions carry no value, so the bound is taken from the type string.
func arrayLength(length map[string]any, typeString string) (string, error) {
	if str(length, "nodeType") == "Literal" {
		if v := str(length, "value"); v != "" {
			return v, nil
		}
	}
	if v := trailingBound(typeString); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: cannot determine array length of %q", layout.ErrMalformedInput, typeString)
}

// trailingBound returns N from a type label ending in "[N]", or "" for "[]".
func trailingBound(label string) string {
	label = strings.TrimSpace(label)
	label = strings.TrimSuffix(label, " storage ref")
	label = strings.TrimSuffix(label, " storage pointer")
	if !strings.HasSuffix(label, "]") {
		return ""
	}
	open := strings.LastIndex(label, "[")
	if open < 0 {
		return ""
	}
	return label[open+1 : len(label)-1]
}

func nodeID(v any) (string, bool) {
	switch id := v.(type) {
	case json.Number:
		return id.String(), true
	case float64:
		return fmt.Sprintf("%d", int64(id)), true
	case string:
		return id, id != ""
	default:
		return "", false
	}
}

func str(n map[string]any, key string) string {
	s, _ := n[key].(string)
	return s
}

func obj(n map[string]any, key string) map[string]any {
	m, _ := n[key].(map[string]any)
	return m
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(n map[string]any, key string) []any {
	l, _ := n[key].([]any)
	return l
}
