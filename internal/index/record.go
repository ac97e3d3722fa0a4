package index

// Index is a read-only arena of declarations and type records.
// All cross references between records are keys into the same Index.
type Index interface {
	Declaration(key string) (*Declaration, error)
	Type(key string) (*TypeRecord, error)
}

// Declaration is one storage variable or struct member.
type Declaration struct {
	Key        string
	ID         string
	Label      string
	Type       string // key of the TypeRecord describing the declared type
	TypeID     string
	TypeName   string
	Visibility string
	Slot       string
	Offset     *int
	Constant   bool
}

// TypeRecord describes the shape of a declared type.
type TypeRecord struct {
	Key     string
	TypeID  string
	Label   string
	Array   bool
	Length  string // empty for dynamic arrays
	Base    string // element type key for arrays
	KeyType string // elementary key signature for mappings
	Value   string // value type key for mappings

	Members    []string // declaration keys, source order
	HasMembers bool

	// Contract marks references to another contract or interface; they are never expanded.
	Contract bool
}
