package abi

// ScalarKind is a primitive C type. The set is closed; long and long long
// stay distinct even where their layouts coincide.
type ScalarKind uint8

const (
	Bool ScalarKind = iota
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Float
	Double
	LongDouble
	Void
)

var kindNames = [...]string{
	Bool:       "bool",
	Char:       "char",
	SChar:      "signed char",
	UChar:      "unsigned char",
	Short:      "short",
	UShort:     "unsigned short",
	Int:        "int",
	UInt:       "unsigned int",
	Long:       "long",
	ULong:      "unsigned long",
	LongLong:   "long long",
	ULongLong:  "unsigned long long",
	Float:      "float",
	Double:     "double",
	LongDouble: "long double",
	Void:       "void",
}

func (k ScalarKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsInteger reports whether k may be the base type of a bitfield.
func (k ScalarKind) IsInteger() bool {
	return k <= ULongLong
}

// Kinds returns every scalar kind in declaration order.
func Kinds() []ScalarKind {
	kinds := make([]ScalarKind, 0, len(kindNames))
	for k := range kindNames {
		kinds = append(kinds, ScalarKind(k))
	}
	return kinds
}

// ParseKind maps a canonical kind name ("unsigned long", "long double") back to its kind.
func ParseKind(name string) (ScalarKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return ScalarKind(k), true
		}
	}
	return 0, false
}

// Layout is the size and alignment of a type in bytes.
type Layout struct {
	Size  uint32
	Align uint32
}

// AlignTo rounds offset up to a multiple of align, a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
