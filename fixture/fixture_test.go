package fixture

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/errors"
)

const corpus = "testdata/corpus"

func TestCorpus(t *testing.T) {
	m, err := LoadManifest(filepath.Join(corpus, "profiles.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	cases, err := LoadDir(corpus)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(cases) != 19 {
		t.Fatalf("loaded %d cases, want 19", len(cases))
	}

	results, err := CheckAll(context.Background(), cases, m.ProfilesFor)
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	for _, r := range results {
		t.Run(r.Case.Name+"/"+r.Profile.Name, func(t *testing.T) {
			if r.Err != nil {
				t.Errorf("%v", r.Err)
			}
		})
	}
}

func TestMarkdownCases(t *testing.T) {
	data, err := os.ReadFile("testdata/layouts.md")
	if err != nil {
		t.Fatal(err)
	}
	cases, err := ParseMarkdown("layouts.md", string(data))
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}

	var names []string
	for _, c := range cases {
		names = append(names, c.Name)
	}
	want := []string{
		"layouts.md#scalar holes",
		"layouts.md#gcc keeps scalar holes implicit",
		"layouts.md#trailing padding",
		"layouts.md#wasm32 pointers",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("case names mismatch (-want +got):\n%s", diff)
	}

	results, err := CheckAll(context.Background(), cases, (*Manifest)(nil).ProfilesFor)
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if len(results) != len(cases) {
		t.Fatalf("got %d results, want %d", len(results), len(cases))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("%s: %v", r.Case.Name, r.Err)
		}
	}
}

func TestParse(t *testing.T) {
	c, err := Parse("x.c", "struct s { int a; };\nvoid f(struct s v);\n\n//struct s { // size=4\n//  int a; // size=4, offset=0\n//};\n\n")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Source != "struct s { int a; };\nvoid f(struct s v);\n" {
		t.Errorf("Source = %q", c.Source)
	}
	want := "struct s { // size=4\n  int a; // size=4, offset=0\n};\n"
	if c.Expected != want {
		t.Errorf("Expected = %q, want %q", c.Expected, want)
	}
	if c.Line != 4 {
		t.Errorf("Line = %d, want 4", c.Line)
	}

	if _, err := Parse("empty.c", "struct s { int a; };\n"); err == nil {
		t.Error("expected error for fixture without layout block")
	}
}

func TestCheckMismatch(t *testing.T) {
	c := &Case{
		Name:     "bad.c",
		Source:   "struct s { char a; int b; }; void f(struct s v);",
		Expected: "struct s { // size=8\n  char a; // size=1, offset=0\n  int  b; // size=4, offset=1\n};\n",
	}
	r := Check(c, abi.Reference)
	if r.OK() {
		t.Fatal("expected mismatch")
	}
	if r.Diff == "" {
		t.Error("Diff should not be empty")
	}
	if !stderrors.Is(r.Err, &errors.Error{Phase: errors.PhaseFixture, Kind: errors.KindMismatch}) {
		t.Errorf("Err = %v, want fixture mismatch", r.Err)
	}
	if got := Summary([]Result{r, {}}); got != "1 passed, 1 failed" {
		t.Errorf("Summary = %q", got)
	}
}

func TestCheckResolveFailure(t *testing.T) {
	c := &Case{
		Name:     "unresolved.c",
		Source:   "struct s { nope_t a; }; void f(struct s v);",
		Expected: "struct s { // size=0\n};\n",
	}
	r := Check(c, abi.Reference)
	if !stderrors.Is(r.Err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindUnresolvedType}) {
		t.Errorf("Err = %v, want unresolved type", r.Err)
	}
}

func TestParseMarkdownErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "fence outside case",
			content: "```c\nstruct s { int a; };\n```\n",
		},
		{
			name:    "missing layout",
			content: "# Layout: x\n\n```c\nstruct s { int a; };\n```\n",
		},
		{
			name:    "missing source",
			content: "# Layout: x\n\n```layout\nstruct s { // size=4\n};\n```\n",
		},
		{
			name:    "unknown fence",
			content: "# Layout: x\n\n```rust\nstruct S;\n```\n",
		},
		{
			name:    "two sources",
			content: "# Layout: x\n\n```c\nstruct a;\n```\n\n```cpp\nstruct b;\n```\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMarkdown("doc.md", tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Phase != errors.PhaseFixture {
				t.Errorf("error = %v, want fixture error", err)
			}
		})
	}
}

func TestManifestLookup(t *testing.T) {
	m := &Manifest{
		Default: ProfileList{"explicit"},
		Profiles: map[string]ProfileList{
			"gcc":         {"reference"},
			"gcc/special": {"wasm32"},
			"misc/a.c":    {"reference", "explicit"},
		},
	}

	tests := []struct {
		path string
		want ProfileList
	}{
		{"gcc/x.c", ProfileList{"reference"}},
		{"gcc/special/y.c", ProfileList{"wasm32"}},
		{"gccx/z.c", ProfileList{"explicit"}},
		{"misc/a.c", ProfileList{"reference", "explicit"}},
		{"misc/b.c", ProfileList{"explicit"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, m.Lookup(tt.path)); diff != "" {
				t.Errorf("Lookup mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got := (&Manifest{}).Lookup("any.c"); !cmp.Equal(got, ProfileList{abi.Default.Name}) {
		t.Errorf("empty manifest Lookup = %v", got)
	}
}

func TestManifestYAMLProfile(t *testing.T) {
	m, err := LoadManifest(filepath.Join(corpus, "profiles.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	ps, err := m.ProfilesFor(&Case{Name: "misc/all_types_and_pointers.c"})
	if err != nil {
		t.Fatalf("ProfilesFor failed: %v", err)
	}
	if len(ps) != 1 || ps[0].Name != "clang-implicit" {
		t.Fatalf("profiles = %v", ps)
	}
	if ps[0].Surfaces(abi.HoleBeforeScalar) {
		t.Error("clang-implicit should not surface scalar holes")
	}
	if ps[0].Spell(abi.Short) != "short" {
		t.Errorf("Spell(short) = %q", ps[0].Spell(abi.Short))
	}

	again, err := m.ProfilesFor(&Case{Name: "misc/all_types_and_pointers.c"})
	if err != nil || again[0] != ps[0] {
		t.Error("YAML profile should be loaded once")
	}

	if _, err := m.ProfilesFor(&Case{Name: "x.c", Profiles: []string{"nope"}}); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestLoadManifestErrors(t *testing.T) {
	if _, err := LoadManifest("testdata/missing.yaml"); err == nil {
		t.Error("expected error for missing manifest")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("default: reference\nunknown: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for unknown manifest key")
	}
}
