package models

// Kind identifies which JSON variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lower-case JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a decoded JSON value: one of Null, Bool, Number, String, Array or *Object.
// A nil Value means "absent", which callers usually treat the same as Null.
type Value interface {
	Kind() Kind
}

// Null is the JSON null literal.
type Null struct{}

// Bool is a JSON boolean.
type Bool bool

// Number is a JSON number kept as its literal text so that "1" stays "1"
// and large integers survive unchanged.
type Number string

// String is a JSON string. It may itself hold serialized JSON.
type String string

// Array is a JSON array.
type Array []Value

func (Null) Kind() Kind    { return KindNull }
func (Bool) Kind() Kind    { return KindBool }
func (Number) Kind() Kind  { return KindNumber }
func (String) Kind() Kind  { return KindString }
func (Array) Kind() Kind   { return KindArray }
func (*Object) Kind() Kind { return KindObject }

// IsNone reports whether v is absent or JSON null.
func IsNone(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// IntermediateRepresentation holds a decoded top-level payload together with
// a hint about its outer shape.
type IntermediateRepresentation struct {
	Root        Value
	RootIsArray bool // True if the root of the JSON is an array vs an object
}

// Row is one display row: column name to pre-formatted cell text.
type Row map[string]string

// DisplayTable is a dataset ready for presentation.
type DisplayTable struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	// DrillDown maps a row index to the raw incomingData value of that row.
	DrillDown map[int]Value `json:"drill_down,omitempty"`
}

// IsEmpty reports whether the table has no rows to show.
func (t DisplayTable) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Report is the rendered view of one workflow-execution result.
type Report struct {
	DocumentID string       `json:"document_id,omitempty"`
	Summary    Value        `json:"summary"`
	Boomi      DisplayTable `json:"boomi"`
	MFT        DisplayTable `json:"mft"`
	Raw        Value        `json:"raw,omitempty"`
}
