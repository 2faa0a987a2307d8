// Package report renders resolved layouts as text.
//
// Each aggregate becomes one block:
//
//	struct s { // size=8
//	  char  c; // size=1, offset=0
//	  // HOLE => 3 bytes
//	  int   i; // size=4, offset=4
//	};
//
// Named aggregates reached by value are listed as blocks of their own,
// once each, in the profile's block order. Anonymous aggregates are drawn
// inline inside their parent with absolute offsets. Holes are printed only
// for the classes the profile surfaces.
package report
