package report

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/resolver"
	"github.com/wippyai/structlayout/typegraph"
)

func sc(k abi.ScalarKind) typegraph.TypeRef { return typegraph.Scalar{Kind: k} }

func ref(a *typegraph.Aggregate) typegraph.TypeRef { return typegraph.AggregateRef{Agg: a} }

func ptr(t typegraph.TypeRef) typegraph.TypeRef { return typegraph.Pointer{Elem: t} }

func fld(name string, t typegraph.TypeRef) typegraph.Field {
	return typegraph.Field{Name: name, Type: t}
}

func define(t *testing.T, b *typegraph.Builder, kw typegraph.Keyword, path []string, fields ...typegraph.Field) *typegraph.Aggregate {
	t.Helper()
	var a *typegraph.Aggregate
	if path == nil {
		a = b.Anonymous(kw)
	} else {
		a = b.Declare(path, kw)
	}
	if err := b.Define(a, fields); err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	return a
}

func render(t *testing.T, p *abi.Profile, roots ...*typegraph.Aggregate) string {
	t.Helper()
	r := resolver.New(p)
	var layouts []*resolver.Layout
	for _, a := range roots {
		l, err := r.Resolve(a)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", a.QualifiedName(), err)
		}
		layouts = append(layouts, l)
	}
	return String(layouts, p)
}

func lines(s ...string) string {
	return strings.Join(s, "\n") + "\n"
}

func TestRenderNestedAnonymous(t *testing.T) {
	b := typegraph.NewBuilder()
	inner := define(t, b, typegraph.KeywordUnion, nil,
		fld("f7", ptr(sc(abi.Void))), fld("f8", ptr(sc(abi.Char))))
	mid := define(t, b, typegraph.KeywordStruct, nil,
		fld("f5", sc(abi.Char)), fld("f6", sc(abi.Char)), fld("", ref(inner)))
	outer := define(t, b, typegraph.KeywordUnion, nil,
		fld("f3", sc(abi.Double)), fld("f4", sc(abi.Double)), fld("", ref(mid)))
	s := define(t, b, typegraph.KeywordStruct, []string{"s"},
		fld("f1", sc(abi.Int)), fld("f2", sc(abi.Int)), fld("", ref(outer)))

	want := lines(
		"struct s { // size=24",
		"  int f1; // size=4, offset=0",
		"  int f2; // size=4, offset=4",
		"  union { // size=16",
		"    double f3; // size=8, offset=8",
		"    double f4; // size=8, offset=8",
		"    struct { // size=16",
		"      char f5; // size=1, offset=8",
		"      char f6; // size=1, offset=9",
		"      // HOLE => 6 bytes",
		"      union { // size=8",
		"        void *f7; // size=8, offset=16",
		"        char *f8; // size=8, offset=16",
		"      };",
		"    };",
		"  };",
		"};",
	)
	for _, p := range []*abi.Profile{abi.Reference, abi.Explicit} {
		if diff := cmp.Diff(want, render(t, p, s)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", p.Name, diff)
		}
	}
}

func TestRenderBitfields(t *testing.T) {
	b := typegraph.NewBuilder()
	bits := func(name string, w uint32) typegraph.Field {
		return typegraph.Field{Name: name, Type: sc(abi.Int), Bitfield: true, BitWidth: w}
	}
	s2 := define(t, b, typegraph.KeywordStruct, []string{"s2"},
		bits("field1", 5), bits("field2", 9), bits("field3", 1), bits("field4", 7), bits("field5", 10))
	s3 := define(t, b, typegraph.KeywordStruct, []string{"s3"},
		bits("field1", 10), bits("field2", 10))

	want := lines(
		"struct s2 { // size=4",
		"  int field1:5;  // size=4, offset=0:0",
		"  int field2:9;  // size=4, offset=0:5",
		"  int field3:1;  // size=4, offset=0:14",
		"  int field4:7;  // size=4, offset=0:15",
		"  int field5:10; // size=4, offset=0:22",
		"};",
		"struct s3 { // size=4",
		"  int field1:10; // size=4, offset=0:0",
		"  int field2:10; // size=4, offset=0:10",
		"  // HOLE => 1 bytes and 4 bits",
		"};",
	)
	if diff := cmp.Diff(want, render(t, abi.Reference, s2, s3)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderPointerColumn(t *testing.T) {
	b := typegraph.NewBuilder()
	decl := b.Declare([]string{"decl"}, typegraph.KeywordClass)
	c := define(t, b, typegraph.KeywordClass, []string{"ns", "c"},
		fld("d", ptr(ref(decl))), fld("field1", sc(abi.Int)), fld("field2", sc(abi.Int)))

	want := lines(
		"class ns::c { // size=16",
		"  decl *d;      // size=8, offset=0",
		"  int   field1; // size=4, offset=8",
		"  int   field2; // size=4, offset=12",
		"};",
	)
	if diff := cmp.Diff(want, render(t, abi.Reference, c)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderBlockOrder(t *testing.T) {
	b := typegraph.NewBuilder()
	nested := define(t, b, typegraph.KeywordStruct, []string{"nested_struct"},
		fld("length", sc(abi.ULongLong)), fld("data", ptr(sc(abi.Void))))
	array := define(t, b, typegraph.KeywordStruct, []string{"array"},
		fld("field1", typegraph.Array{Elem: ref(nested), Len: 4}))

	gcc := lines(
		"struct nested_struct { // size=16",
		"  long long unsigned int length; // size=8, offset=0",
		"  void *                 data;   // size=8, offset=8",
		"};",
		"struct array { // size=64",
		"  nested_struct field1[4]; // size=64, offset=0",
		"};",
	)
	zig := lines(
		"struct array { // size=64",
		"  nested_struct field1[4]; // size=64, offset=0",
		"};",
		"struct nested_struct { // size=16",
		"  unsigned long long length; // size=8, offset=0",
		"  void *             data;   // size=8, offset=8",
		"};",
	)
	if diff := cmp.Diff(gcc, render(t, abi.Reference, array)); diff != "" {
		t.Errorf("reference mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(zig, render(t, abi.Explicit, array)); diff != "" {
		t.Errorf("explicit mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderZeroSized(t *testing.T) {
	b := typegraph.NewBuilder()
	u64 := typegraph.Typedef{Name: "uint64_t", Standard: true, Underlying: sc(abi.ULong)}
	z := define(t, b, typegraph.KeywordStruct, []string{"zero_sized"},
		fld("count", sc(abi.Int)),
		fld("dynamic_levels", typegraph.Array{Elem: sc(abi.Float)}),
		fld("z1", typegraph.Typedef{Name: "ZeroMarker", Underlying: typegraph.Array{Elem: ptr(sc(abi.Void))}}),
		fld("z2", typegraph.Typedef{Name: "ZeroMarker64", Underlying: typegraph.Array{Elem: u64}}))

	want := lines(
		"struct zero_sized { // size=8",
		"  int          count;             // size=4, offset=0",
		"  float        dynamic_levels[0]; // size=0, offset=4",
		"  ZeroMarker   z1;                // size=0, offset=8",
		"  ZeroMarker64 z2;                // size=0, offset=8",
		"};",
	)
	for _, p := range []*abi.Profile{abi.Reference, abi.Explicit} {
		if diff := cmp.Diff(want, render(t, p, z)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", p.Name, diff)
		}
	}
}

func TestRenderSurfacedHoles(t *testing.T) {
	b := typegraph.NewBuilder()
	inner := define(t, b, typegraph.KeywordStruct, []string{"inner_struct"},
		fld("inner_field1", sc(abi.Int)), fld("inner_field2", sc(abi.Char)))
	small := define(t, b, typegraph.KeywordStruct, []string{"small"},
		fld("c", sc(abi.Char)), fld("s", sc(abi.Short)), fld("in", ref(inner)))

	ref := lines(
		"struct inner_struct { // size=8",
		"  int  inner_field1; // size=4, offset=0",
		"  char inner_field2; // size=1, offset=4",
		"};",
		"struct small { // size=12",
		"  char         c;  // size=1, offset=0",
		"  short int    s;  // size=2, offset=2",
		"  inner_struct in; // size=8, offset=4",
		"};",
	)
	explicit := lines(
		"struct small { // size=12",
		"  char         c;  // size=1, offset=0",
		"  // HOLE => 1 bytes",
		"  short        s;  // size=2, offset=2",
		"  inner_struct in; // size=8, offset=4",
		"};",
		"struct inner_struct { // size=8",
		"  int  inner_field1; // size=4, offset=0",
		"  char inner_field2; // size=1, offset=4",
		"  // HOLE => 3 bytes",
		"};",
	)
	if diff := cmp.Diff(ref, render(t, abi.Reference, small)); diff != "" {
		t.Errorf("reference mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(explicit, render(t, abi.Explicit, small)); diff != "" {
		t.Errorf("explicit mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderNamedAnonymousMember(t *testing.T) {
	b := typegraph.NewBuilder()
	anon := define(t, b, typegraph.KeywordStruct, nil, fld("x", sc(abi.Int)), fld("y", sc(abi.Int)))
	s := define(t, b, typegraph.KeywordStruct, []string{"point"},
		fld("tag", sc(abi.Char)), fld("pos", typegraph.Array{Elem: ref(anon), Len: 2}))

	want := lines(
		"struct point { // size=20",
		"  char tag; // size=1, offset=0",
		"  // HOLE => 3 bytes",
		"  struct { // size=8",
		"    int x; // size=4, offset=4",
		"    int y; // size=4, offset=8",
		"  } pos[2]; // size=16, offset=4",
		"};",
	)
	if diff := cmp.Diff(want, render(t, abi.Reference, s)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBlocksDeduplicates(t *testing.T) {
	b := typegraph.NewBuilder()
	leaf := define(t, b, typegraph.KeywordStruct, []string{"leaf"}, fld("i", sc(abi.Int)))
	left := define(t, b, typegraph.KeywordStruct, []string{"left"}, fld("l", ref(leaf)))
	right := define(t, b, typegraph.KeywordStruct, []string{"right"}, fld("l", ref(leaf)), fld("p", ptr(ref(left))))
	root := define(t, b, typegraph.KeywordStruct, []string{"root"}, fld("a", ref(left)), fld("b", ref(right)))

	r := resolver.New(abi.Reference)
	l, err := r.Resolve(root)
	if err != nil {
		t.Fatal(err)
	}
	l2, err := r.Resolve(right)
	if err != nil {
		t.Fatal(err)
	}

	names := func(ls []*resolver.Layout) []string {
		var out []string
		for _, l := range ls {
			out = append(out, l.Name())
		}
		return out
	}
	roots := []*resolver.Layout{l, l2}
	if diff := cmp.Diff([]string{"root", "left", "leaf", "right"}, names(Blocks(roots, abi.OrderFirstReference))); diff != "" {
		t.Errorf("first-reference (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"leaf", "left", "right", "root"}, names(Blocks(roots, abi.OrderDependency))); diff != "" {
		t.Errorf("dependency (-want +got):\n%s", diff)
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		typ  typegraph.TypeRef
		p    *abi.Profile
		want string
	}{
		{sc(abi.ULong), abi.Reference, "long unsigned int"},
		{sc(abi.ULong), abi.Explicit, "unsigned long"},
		{sc(abi.Bool), abi.Explicit, "_Bool"},
		{ptr(ptr(sc(abi.Char))), abi.Reference, "char **"},
		{ptr(sc(abi.LongDouble)), abi.Explicit, "long double *"},
		{typegraph.Array{Elem: sc(abi.Float), Len: 3}, abi.Reference, "float"},
		{typegraph.Typedef{Name: "u16", Underlying: sc(abi.UShort)}, abi.Reference, "u16"},
		{typegraph.Unresolved{Name: "mystery"}, abi.Reference, "mystery"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.typ, tt.p); got != tt.want {
			t.Errorf("TypeName(%#v, %s) = %q, want %q", tt.typ, tt.p.Name, got, tt.want)
		}
	}
}

func TestHoleSize(t *testing.T) {
	tests := []struct {
		hole resolver.Hole
		want string
	}{
		{resolver.Hole{Bytes: 6}, "6 bytes"},
		{resolver.Hole{Bits: 4}, "4 bits"},
		{resolver.Hole{Bytes: 1, Bits: 4}, "1 bytes and 4 bits"},
	}
	for _, tt := range tests {
		if got := HoleSize(tt.hole); got != tt.want {
			t.Errorf("HoleSize(%+v) = %q, want %q", tt.hole, got, tt.want)
		}
	}
}

func TestRenderWithStyleKeepsText(t *testing.T) {
	b := typegraph.NewBuilder()
	s := define(t, b, typegraph.KeywordStruct, []string{"s"}, fld("c", sc(abi.Char)), fld("i", sc(abi.Int)))
	l, err := resolver.New(abi.Explicit).Resolve(s)
	if err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	if err := Render(&out, []*resolver.Layout{l}, abi.Explicit, WithStyle(DefaultStyle())); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"struct s { // size=8", "HOLE => 3 bytes", "int  i; // size=4, offset=4"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("styled output %q missing %q", out.String(), want)
		}
	}
}
