package abi

import "strings"

// HoleClass classifies a padding hole by what follows it.
type HoleClass uint8

const (
	HoleBeforeScalar     HoleClass = iota // keyword scalar or pointer
	HoleBeforeFixedWidth                  // int16_t and friends
	HoleBeforeAlias                       // user typedef of a scalar
	HoleBeforeAggregate                   // named, anonymous or array of aggregate
	HoleBeforeZeroSize                    // zero-length array or marker typedef
	HoleTrailing                          // tail padding up to the aggregate alignment
	HoleBitRemainder                      // unused bits of a closed bitfield unit
)

var holeClassNames = [...]string{
	HoleBeforeScalar:     "scalar",
	HoleBeforeFixedWidth: "fixed-width",
	HoleBeforeAlias:      "alias",
	HoleBeforeAggregate:  "aggregate",
	HoleBeforeZeroSize:   "zero-size",
	HoleTrailing:         "trailing",
	HoleBitRemainder:     "bit-remainder",
}

// String returns the class name used in YAML profiles.
func (c HoleClass) String() string {
	if int(c) < len(holeClassNames) {
		return holeClassNames[c]
	}
	return "unknown"
}

// ParseHoleClass maps a class name as used in YAML profiles to its class.
func ParseHoleClass(name string) (HoleClass, bool) {
	for c, n := range holeClassNames {
		if n == name {
			return HoleClass(c), true
		}
	}
	return 0, false
}

// HoleClassSet is a set of hole classes.
type HoleClassSet uint16

// Holes builds a set from its members.
func Holes(classes ...HoleClass) HoleClassSet {
	var s HoleClassSet
	for _, c := range classes {
		s |= 1 << c
	}
	return s
}

// Has reports whether c is in s.
func (s HoleClassSet) Has(c HoleClass) bool {
	return s&(1<<c) != 0
}

// Classes lists the members of s in class order.
func (s HoleClassSet) Classes() []HoleClass {
	var out []HoleClass
	for c := range holeClassNames {
		if s.Has(HoleClass(c)) {
			out = append(out, HoleClass(c))
		}
	}
	return out
}

// String lists the class names of s separated by commas.
func (s HoleClassSet) String() string {
	names := make([]string, 0, len(holeClassNames))
	for _, c := range s.Classes() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

// BlockOrder selects how nested named aggregates are listed in a report.
type BlockOrder string

const (
	// OrderDependency lists referenced aggregates before the aggregate using them.
	OrderDependency BlockOrder = "dependency"
	// OrderFirstReference lists aggregates in the order they are first referenced.
	OrderFirstReference BlockOrder = "first-reference"
)

// Valid reports whether o is a known block order.
func (o BlockOrder) Valid() bool {
	return o == OrderDependency || o == OrderFirstReference
}
