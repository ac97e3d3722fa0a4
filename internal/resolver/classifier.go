package resolver

import (
	"github.com/seitarof/layout-lens/internal/index"
	"github.com/seitarof/layout-lens/internal/layout"
)

// Classification is the storage shape of one type record.
type Classification struct {
	Kind    layout.Kind
	Length  string
	KeyType string
}

// Classify determines the kind of a type record. Checks run in precedence order:
// fixed array, dynamic array, struct, mapping, elementary. References to other
// contracts are always elementary so their storage is never pulled in.
func Classify(t *index.TypeRecord) Classification {
	switch {
	case t == nil || t.Contract:
		return Classification{Kind: layout.KindElementary}
	case t.Array && t.Length != "":
		return Classification{Kind: layout.KindFixedArray, Length: t.Length}
	case t.Array:
		return Classification{Kind: layout.KindDynamicArray}
	case t.HasMembers:
		return Classification{Kind: layout.KindStruct}
	case t.KeyType != "" && t.Value != "":
		return Classification{Kind: layout.KindMapping, KeyType: t.KeyType}
	default:
		return Classification{Kind: layout.KindElementary}
	}
}
