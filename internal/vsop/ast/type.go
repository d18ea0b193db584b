package ast

// TypeKind is the discriminator of a static type: one of the four primitive
// kinds or CLASS.
type TypeKind int

const (
	UNIT TypeKind = iota
	BOOL
	INT32
	STRING
	CLASS
)

func (k TypeKind) String() string {
	switch k {
	case UNIT:
		return "unit"
	case BOOL:
		return "bool"
	case INT32:
		return "int32"
	case STRING:
		return "string"
	case CLASS:
		return "class"
	default:
		return "UNKNOWN_KIND"
	}
}

// StaticType is the (kind, name) pair attached to every expression by the
// typing pass. For primitives, Name is the canonical spelling; for CLASS,
// Name is the class identifier.
type StaticType struct {
	Kind TypeKind
	Name string
}

// IsZero reports whether t has never been assigned -- i.e. it is still the
// zero value, carrying neither a primitive nor a class name. Expression nodes
// start in this state and must not remain in it once the typing pass has
// run.
func (t StaticType) IsZero() bool {
	return t.Kind == UNIT && t.Name == ""
}

func (t StaticType) String() string {
	return t.Name
}

// Primitive type constants, the canonical spellings used both as
// declared-type text and as the Name of a primitive StaticType.
var (
	TypeUnit   = StaticType{Kind: UNIT, Name: "unit"}
	TypeBool   = StaticType{Kind: BOOL, Name: "bool"}
	TypeInt32  = StaticType{Kind: INT32, Name: "int32"}
	TypeString = StaticType{Kind: STRING, Name: "string"}
)

// ClassType builds the StaticType for a named class.
func ClassType(name string) StaticType {
	return StaticType{Kind: CLASS, Name: name}
}

// Equal reports whether two static types are the identical (kind, name)
// pair.
func (t StaticType) Equal(o StaticType) bool {
	return t.Kind == o.Kind && t.Name == o.Name
}
