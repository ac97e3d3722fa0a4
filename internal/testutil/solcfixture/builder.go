// Package solcfixture builds solc compiler output for tests: ASTs assembled node by
// node, storage layouts given verbatim, and hardhat artifact trees kept as txtar archives.
package solcfixture

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Node is one AST node.
type Node = map[string]any

// Builder assigns ids and collects source units and storage layouts.
type Builder struct {
	nextID   int
	sources  map[string][]any
	order    []string
	unitIDs  map[string]int
	layouts  map[string]map[string]any
	typeByID map[int]typeDesc
}

type typeDesc struct {
	identifier string
	str        string
}

// New returns an empty builder. Node ids start at 1.
func New() *Builder {
	return &Builder{
		nextID:   1,
		sources:  map[string][]any{},
		unitIDs:  map[string]int{},
		layouts:  map[string]map[string]any{},
		typeByID: map[int]typeDesc{},
	}
}

func (b *Builder) id() int {
	id := b.nextID
	b.nextID++
	return id
}

func (b *Builder) typeNode(nodeType string, desc typeDesc, fields Node) Node {
	id := b.id()
	n := Node{
		"id":       id,
		"nodeType": nodeType,
		"typeDescriptions": Node{
			"typeIdentifier": desc.identifier,
			"typeString":     desc.str,
		},
	}
	for k, v := range fields {
		n[k] = v
	}
	b.typeByID[id] = desc
	return n
}

func descOf(n Node) typeDesc {
	d, _ := n["typeDescriptions"].(Node)
	id, _ := d["typeIdentifier"].(string)
	s, _ := d["typeString"].(string)
	return typeDesc{identifier: id, str: s}
}

// Elementary returns an ElementaryTypeName such as uint256 or address.
func (b *Builder) Elementary(name string) Node {
	return b.typeNode("ElementaryTypeName", typeDesc{identifier: "t_" + name, str: name}, Node{"name": name})
}

// Struct returns a StructDefinition with the given member declarations.
func (b *Builder) Struct(name string, members ...Node) Node {
	ms := make([]any, 0, len(members))
	for _, m := range members {
		ms = append(ms, m)
	}
	return Node{
		"id":         b.id(),
		"nodeType":   "StructDefinition",
		"name":       name,
		"visibility": "public",
		"members":    ms,
	}
}

// Enum returns an EnumDefinition.
func (b *Builder) Enum(name string, values ...string) Node {
	ms := make([]any, 0, len(values))
	for _, v := range values {
		ms = append(ms, Node{"id": b.id(), "nodeType": "EnumValue", "name": v})
	}
	return Node{"id": b.id(), "nodeType": "EnumDefinition", "name": name, "members": ms}
}

// UserDefined returns a UserDefinedTypeName referring to a struct, enum or contract definition.
func (b *Builder) UserDefined(target Node) Node {
	name, _ := target["name"].(string)
	targetID := target["id"]
	var desc typeDesc
	switch target["nodeType"] {
	case "StructDefinition":
		desc = typeDesc{identifier: fmt.Sprintf("t_struct$_%s_$%v_storage_ptr", name, targetID), str: "struct " + name}
	case "ContractDefinition":
		desc = typeDesc{identifier: fmt.Sprintf("t_contract$_%s_$%v", name, targetID), str: "contract " + name}
	case "EnumDefinition":
		desc = typeDesc{identifier: fmt.Sprintf("t_enum$_%s_$%v", name, targetID), str: "enum " + name}
	default:
		desc = typeDesc{identifier: "t_userdefined$_" + name, str: name}
	}
	return b.typeNode("UserDefinedTypeName", desc, Node{
		"referencedDeclaration": targetID,
		"pathNode":              Node{"id": b.id(), "nodeType": "IdentifierPath", "name": name, "referencedDeclaration": targetID},
	})
}

// Array returns an ArrayTypeName. A negative length makes a dynamic array.
func (b *Builder) Array(base Node, length int) Node {
	bd := descOf(base)
	baseStr := strings.TrimSuffix(bd.str, " storage ref")
	fields := Node{"baseType": base, "length": nil}
	var desc typeDesc
	if length < 0 {
		desc = typeDesc{identifier: "t_array$_" + trimT(bd.identifier) + "_$dyn_storage_ptr", str: baseStr + "[]"}
	} else {
		desc = typeDesc{
			identifier: fmt.Sprintf("t_array$_%s_$%d_storage_ptr", trimT(bd.identifier), length),
			str:        fmt.Sprintf("%s[%d]", baseStr, length),
		}
		fields["length"] = Node{
			"id":       b.id(),
			"nodeType": "Literal",
			"kind":     "number",
			"value":    fmt.Sprintf("%d", length),
		}
	}
	return b.typeNode("ArrayTypeName", desc, fields)
}

// ConstantLengthArray returns a fixed array whose bound is a named constant, so the
// length expression carries no literal value.
func (b *Builder) ConstantLengthArray(base Node, constant string, length int) Node {
	n := b.Array(base, length)
	n["length"] = Node{"id": b.id(), "nodeType": "Identifier", "name": constant}
	return n
}

// Mapping returns a Mapping type name.
func (b *Builder) Mapping(key, value Node) Node {
	kd, vd := descOf(key), descOf(value)
	desc := typeDesc{
		identifier: "t_mapping$_" + trimT(kd.identifier) + "_$_" + trimT(vd.identifier) + "_$",
		str:        "mapping(" + kd.str + " => " + vd.str + ")",
	}
	return b.typeNode("Mapping", desc, Node{"keyType": key, "valueType": value})
}

func trimT(identifier string) string {
	return strings.TrimPrefix(identifier, "t_")
}

// Var returns a mutable state variable or struct member declaration.
func (b *Builder) Var(name string, typeName Node) Node {
	return b.declaration(name, typeName, "mutable")
}

// Constant returns a constant declaration.
func (b *Builder) Constant(name string, typeName Node) Node {
	return b.declaration(name, typeName, "constant")
}

// Immutable returns an immutable declaration.
func (b *Builder) Immutable(name string, typeName Node) Node {
	return b.declaration(name, typeName, "immutable")
}

func (b *Builder) declaration(name string, typeName Node, mutability string) Node {
	d := descOf(typeName)
	return Node{
		"id":               b.id(),
		"nodeType":         "VariableDeclaration",
		"name":             name,
		"constant":         mutability == "constant",
		"mutability":       mutability,
		"stateVariable":    true,
		"storageLocation":  "default",
		"visibility":       "internal",
		"typeName":         typeName,
		"typeDescriptions": Node{"typeIdentifier": d.identifier, "typeString": d.str},
	}
}

// Function returns a FunctionDefinition; state variable scans must skip it.
func (b *Builder) Function(name string) Node {
	return Node{"id": b.id(), "nodeType": "FunctionDefinition", "name": name, "body": Node{"id": b.id(), "nodeType": "Block"}}
}

// Contract returns a ContractDefinition. Bases are given most-derived first and their
// own linearisations are appended after them, which is exact for single inheritance.
func (b *Builder) Contract(name string, bases []Node, nodes ...Node) Node {
	id := b.id()
	linearized := []any{id}
	seen := map[any]bool{id: true}
	for _, base := range bases {
		for _, lin := range base["linearizedBaseContracts"].([]any) {
			if seen[lin] {
				continue
			}
			seen[lin] = true
			linearized = append(linearized, lin)
		}
	}
	children := make([]any, 0, len(nodes))
	for _, n := range nodes {
		children = append(children, n)
	}
	baseSpecs := make([]any, 0, len(bases))
	for _, base := range bases {
		baseSpecs = append(baseSpecs, Node{
			"id":       b.id(),
			"nodeType": "InheritanceSpecifier",
			"baseName": Node{"id": b.id(), "nodeType": "IdentifierPath", "name": base["name"], "referencedDeclaration": base["id"]},
		})
	}
	return Node{
		"id":                      id,
		"nodeType":                "ContractDefinition",
		"name":                    name,
		"contractKind":            "contract",
		"baseContracts":           baseSpecs,
		"linearizedBaseContracts": linearized,
		"nodes":                   children,
	}
}

// Source adds top-level nodes to a source unit.
func (b *Builder) Source(path string, nodes ...Node) {
	if _, ok := b.sources[path]; !ok {
		b.order = append(b.order, path)
		b.unitIDs[path] = b.id()
	}
	for _, n := range nodes {
		b.sources[path] = append(b.sources[path], n)
	}
}

// StorageLayout attaches a storageLayout object, written in solc's JSON form, to a contract.
// An empty layout records the contract without storage layout output.
func (b *Builder) StorageLayout(source, contract string, storageLayout string) error {
	if _, ok := b.layouts[source]; !ok {
		b.layouts[source] = map[string]any{}
	}
	if storageLayout == "" {
		b.layouts[source][contract] = Node{"abi": []any{}}
		return nil
	}
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(storageLayout), &raw); err != nil {
		return fmt.Errorf("storage layout of %s:%s: %w", source, contract, err)
	}
	b.layouts[source][contract] = Node{"abi": []any{}, "storageLayout": raw}
	return nil
}

// Output renders the compiler output JSON.
func (b *Builder) Output() []byte {
	sources := Node{}
	paths := append([]string(nil), b.order...)
	sort.Strings(paths)
	for i, path := range paths {
		sources[path] = Node{
			"id": i,
			"ast": Node{
				"id":           b.unitIDs[path],
				"nodeType":     "SourceUnit",
				"absolutePath": path,
				"nodes":        b.sources[path],
			},
		}
	}
	out := Node{"sources": sources, "contracts": b.layouts}
	data, err := json.Marshal(out)
	if err != nil {
		panic(fmt.Sprintf("solcfixture: marshal output: %v", err))
	}
	return data
}
