package abi

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
)

func TestLoadWithBase(t *testing.T) {
	src := `
name: i386-sysv
base: reference
pointer: {size: 4, align: 4}
scalars:
  long: {size: 4, align: 4}
  unsigned long: {size: 4, align: 4}
  long long: {size: 8, align: 4}
  double: {size: 8, align: 4}
  long double: {size: 12, align: 4}
fixed_width:
  int64_t: long long
surface: [aggregate, alias, bit-remainder, scalar]
order: first-reference
`
	p, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "i386-sysv" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Pointer != (Layout{4, 4}) {
		t.Errorf("pointer = %+v", p.Pointer)
	}
	if l, _ := p.ScalarLayout(LongDouble); l != (Layout{12, 4}) {
		t.Errorf("long double = %+v", l)
	}
	if l, _ := p.ScalarLayout(Short); l != (Layout{2, 2}) {
		t.Errorf("short should be inherited, got %+v", l)
	}
	if k, _ := p.Standard("int64_t"); k != LongLong {
		t.Errorf("int64_t = %v", k)
	}
	if p.Spell(Short) != "short int" {
		t.Errorf("spellings should be inherited, got %q", p.Spell(Short))
	}
	if !p.Surfaces(HoleBeforeScalar) || p.Surfaces(HoleTrailing) {
		t.Errorf("surface = %v", p.Surface)
	}
	if p.Order != OrderFirstReference {
		t.Errorf("order = %v", p.Order)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", "name: x\nbase: reference\nbogus: 1\n"},
		{"unknown base", "name: x\nbase: nothing\n"},
		{"missing pointer", "name: x\n"},
		{"unknown kind", "name: x\nbase: reference\nscalars:\n  int128: {size: 16, align: 16}\n"},
		{"unknown hole class", "name: x\nbase: reference\nsurface: [everything]\n"},
		{"bad alignment", "name: x\nbase: reference\nscalars:\n  int: {size: 4, align: 3}\n"},
		{"bad order", "name: x\nbase: reference\norder: sideways\n"},
		{"not yaml", "name: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Reference); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"name: reference", "long double:", "short int", "order: dependency"} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded profile missing %q:\n%s", want, out)
		}
	}

	back, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, k := range Kinds() {
		want, werr := Reference.ScalarLayout(k)
		got, gerr := back.ScalarLayout(k)
		if (werr == nil) != (gerr == nil) || want != got {
			t.Errorf("%s: got %+v/%v, want %+v/%v", k, got, gerr, want, werr)
		}
		if back.Spell(k) != Reference.Spell(k) {
			t.Errorf("%s spelled %q, want %q", k, back.Spell(k), Reference.Spell(k))
		}
	}
	if back.Surface != Reference.Surface {
		t.Errorf("surface = %v, want %v", back.Surface, Reference.Surface)
	}
	if back.Pointer != Reference.Pointer {
		t.Errorf("pointer = %+v", back.Pointer)
	}
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestEncodeWriteError(t *testing.T) {
	boom := stderrors.New("disk full")
	if err := Encode(failingWriter{boom}, Wasm32); !stderrors.Is(err, boom) {
		t.Errorf("Encode error = %v, want %v", err, boom)
	}
}
