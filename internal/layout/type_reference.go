package layout

// TypeReference is one node of a resolved storage layout tree.
type TypeReference struct {
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	TypeName   string          `json:"typeName"`
	Visibility string          `json:"visibility,omitempty"`
	Slot       string          `json:"slot,omitempty"`
	Offset     *int            `json:"offset,omitempty"`
	Length     string          `json:"length,omitempty"`
	KeyType    string          `json:"keyType,omitempty"`
	SubType    []TypeReference `json:"subType,omitzero"`

	// Kind is not serialized; composite nodes keep a non-nil SubType instead.
	Kind Kind `json:"-"`
}

// IsComposite reports whether the node carries a member layout.
func (r TypeReference) IsComposite() bool {
	return r.SubType != nil
}

// Kind is the storage shape of one declaration.
type Kind int

const (
	KindElementary Kind = iota
	KindStruct
	KindFixedArray
	KindDynamicArray
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindElementary:
		return "elementary"
	case KindStruct:
		return "struct"
	case KindFixedArray:
		return "fixed-array"
	case KindDynamicArray:
		return "dynamic-array"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Composite reports whether values of this kind decompose into sub-fields.
func (k Kind) Composite() bool {
	return k != KindElementary
}
