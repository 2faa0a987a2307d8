package canon

import (
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/structlayout/abi"
)

func TestLayoutPrimitives(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		typ  wit.Type
		name string
		want abi.Layout
	}{
		{wit.Bool{}, "bool", abi.Layout{Size: 1, Align: 1}},
		{wit.U8{}, "u8", abi.Layout{Size: 1, Align: 1}},
		{wit.S8{}, "s8", abi.Layout{Size: 1, Align: 1}},
		{wit.U16{}, "u16", abi.Layout{Size: 2, Align: 2}},
		{wit.S16{}, "s16", abi.Layout{Size: 2, Align: 2}},
		{wit.U32{}, "u32", abi.Layout{Size: 4, Align: 4}},
		{wit.S32{}, "s32", abi.Layout{Size: 4, Align: 4}},
		{wit.U64{}, "u64", abi.Layout{Size: 8, Align: 8}},
		{wit.S64{}, "s64", abi.Layout{Size: 8, Align: 8}},
		{wit.F32{}, "f32", abi.Layout{Size: 4, Align: 4}},
		{wit.F64{}, "f64", abi.Layout{Size: 8, Align: 8}},
		{wit.Char{}, "char", abi.Layout{Size: 4, Align: 4}},
		{wit.String{}, "string", abi.Layout{Size: 8, Align: 4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Layout(tc.typ); got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLayoutTypeDefs(t *testing.T) {
	tests := []struct {
		name string
		kind wit.TypeDefKind
		want abi.Layout
	}{
		{"empty record", &wit.Record{}, abi.Layout{Size: 0, Align: 1}},
		{
			"mixed record",
			&wit.Record{Fields: []wit.Field{
				{Name: "a", Type: wit.U8{}},
				{Name: "b", Type: wit.U32{}},
				{Name: "c", Type: wit.U8{}},
			}},
			abi.Layout{Size: 12, Align: 4},
		},
		{"tuple", &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.U64{}}}, abi.Layout{Size: 16, Align: 8}},
		{"list", &wit.List{Type: wit.U64{}}, abi.Layout{Size: 8, Align: 4}},
		{"option u8", &wit.Option{Type: wit.U8{}}, abi.Layout{Size: 2, Align: 1}},
		{"option u64", &wit.Option{Type: wit.U64{}}, abi.Layout{Size: 16, Align: 8}},
		{"result empty", &wit.Result{}, abi.Layout{Size: 1, Align: 1}},
		{"result u32 string", &wit.Result{OK: wit.U32{}, Err: wit.String{}}, abi.Layout{Size: 12, Align: 4}},
		{
			"variant",
			&wit.Variant{Cases: []wit.Case{{Name: "none"}, {Name: "small", Type: wit.U16{}}, {Name: "big", Type: wit.U64{}}}},
			abi.Layout{Size: 16, Align: 8},
		},
		{"variant without payload", &wit.Variant{Cases: []wit.Case{{Name: "a"}, {Name: "b"}}}, abi.Layout{Size: 1, Align: 1}},
		{"enum", &wit.Enum{Cases: []wit.EnumCase{{Name: "a"}, {Name: "b"}}}, abi.Layout{Size: 1, Align: 1}},
		{"own", &wit.Own{}, abi.Layout{Size: 4, Align: 4}},
		{"borrow", &wit.Borrow{}, abi.Layout{Size: 4, Align: 4}},
		{"alias", wit.U16{}, abi.Layout{Size: 2, Align: 2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewCalculator().Layout(&wit.TypeDef{Kind: tc.kind})
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		n    int
		want abi.Layout
	}{
		{0, abi.Layout{Size: 0, Align: 1}},
		{1, abi.Layout{Size: 1, Align: 1}},
		{8, abi.Layout{Size: 1, Align: 1}},
		{9, abi.Layout{Size: 2, Align: 2}},
		{17, abi.Layout{Size: 4, Align: 4}},
		{33, abi.Layout{Size: 8, Align: 4}},
		{64, abi.Layout{Size: 8, Align: 4}},
		{65, abi.Layout{Size: 12, Align: 4}},
	}
	for _, tc := range tests {
		if got := Flags(tc.n); got != tc.want {
			t.Errorf("Flags(%d) = %+v, want %+v", tc.n, got, tc.want)
		}
	}
}

func TestDiscriminantSize(t *testing.T) {
	tests := []struct {
		cases int
		want  uint32
	}{
		{0, 1}, {1, 1}, {256, 1}, {257, 2}, {65536, 2}, {65537, 4},
	}
	for _, tc := range tests {
		if got := DiscriminantSize(tc.cases); got != tc.want {
			t.Errorf("DiscriminantSize(%d) = %d, want %d", tc.cases, got, tc.want)
		}
	}
}

func TestCalculatorCaches(t *testing.T) {
	c := NewCalculator()
	td := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{{Name: "x", Type: wit.U32{}}}}}
	first := c.Layout(td)
	td.Kind = &wit.Record{}
	if got := c.Layout(td); got != first {
		t.Errorf("second Layout = %+v, want cached %+v", got, first)
	}
}
