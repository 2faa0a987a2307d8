package abi

import (
	"sort"
	"sync"

	"github.com/wippyai/structlayout/errors"
)

// Profile is the scalar table and reporting policy of one target toolchain.
// Profiles are shared between resolvers and must not be mutated after
// registration; use Clone to derive a variant.
type Profile struct {
	Scalars    map[ScalarKind]Layout
	Spellings  map[ScalarKind]string
	FixedWidth map[string]ScalarKind
	Name       string
	Order      BlockOrder
	Pointer    Layout
	Surface    HoleClassSet
}

// ScalarLayout returns the size and alignment of k.
func (p *Profile) ScalarLayout(k ScalarKind) (Layout, error) {
	l, ok := p.Scalars[k]
	if !ok || l.Align == 0 {
		return Layout{}, &errors.Error{
			Phase:  errors.PhaseProfile,
			Kind:   errors.KindProfileMismatch,
			Type:   k.String(),
			Detail: "no entry in profile " + p.Name,
		}
	}
	return l, nil
}

func (p *Profile) PointerLayout() Layout {
	return p.Pointer
}

// BitfieldUnitSize returns the width of the storage unit bitfields of base
// type k pack into: the size of k itself.
func (p *Profile) BitfieldUnitSize(k ScalarKind) (uint32, error) {
	l, err := p.ScalarLayout(k)
	if err != nil {
		return 0, err
	}
	return l.Size, nil
}

// Surfaces reports whether holes of class c appear in reports.
func (p *Profile) Surfaces(c HoleClass) bool {
	return p.Surface.Has(c)
}

// Spell returns the display name of k.
func (p *Profile) Spell(k ScalarKind) string {
	if s, ok := p.Spellings[k]; ok {
		return s
	}
	return k.String()
}

// Standard resolves a fixed-width library typedef name such as uint16_t.
func (p *Profile) Standard(name string) (ScalarKind, bool) {
	k, ok := p.FixedWidth[name]
	return k, ok
}

// Clone returns a deep copy of p under a new name.
func (p *Profile) Clone(name string) *Profile {
	c := &Profile{
		Name:       name,
		Pointer:    p.Pointer,
		Surface:    p.Surface,
		Order:      p.Order,
		Scalars:    make(map[ScalarKind]Layout, len(p.Scalars)),
		Spellings:  make(map[ScalarKind]string, len(p.Spellings)),
		FixedWidth: make(map[string]ScalarKind, len(p.FixedWidth)),
	}
	for k, v := range p.Scalars {
		c.Scalars[k] = v
	}
	for k, v := range p.Spellings {
		c.Spellings[k] = v
	}
	for k, v := range p.FixedWidth {
		c.FixedWidth[k] = v
	}
	return c
}

func (p *Profile) validate() error {
	if p.Name == "" {
		return errors.InvalidInput(errors.PhaseProfile, "profile has no name")
	}
	if !p.Order.Valid() {
		return errors.InvalidInput(errors.PhaseProfile, "profile "+p.Name+": unknown block order "+string(p.Order))
	}
	if err := checkLayout(p.Name, "pointer", p.Pointer); err != nil {
		return err
	}
	for k, l := range p.Scalars {
		if err := checkLayout(p.Name, k.String(), l); err != nil {
			return err
		}
	}
	return nil
}

func checkLayout(profile, what string, l Layout) error {
	if l.Align == 0 || l.Align&(l.Align-1) != 0 {
		return errors.New(errors.PhaseProfile, errors.KindInvalidInput).
			Type(what).
			Detail("profile %s: alignment %d is not a power of two", profile, l.Align).
			Build()
	}
	if l.Size%l.Align != 0 {
		return errors.New(errors.PhaseProfile, errors.KindInvalidInput).
			Type(what).
			Detail("profile %s: size %d is not a multiple of alignment %d", profile, l.Size, l.Align).
			Build()
	}
	return nil
}

var lp64Scalars = map[ScalarKind]Layout{
	Bool:       {1, 1},
	Char:       {1, 1},
	SChar:      {1, 1},
	UChar:      {1, 1},
	Short:      {2, 2},
	UShort:     {2, 2},
	Int:        {4, 4},
	UInt:       {4, 4},
	Long:       {8, 8},
	ULong:      {8, 8},
	LongLong:   {8, 8},
	ULongLong:  {8, 8},
	Float:      {4, 4},
	Double:     {8, 8},
	LongDouble: {16, 16},
}

var ilp32Scalars = map[ScalarKind]Layout{
	Bool:       {1, 1},
	Char:       {1, 1},
	SChar:      {1, 1},
	UChar:      {1, 1},
	Short:      {2, 2},
	UShort:     {2, 2},
	Int:        {4, 4},
	UInt:       {4, 4},
	Long:       {4, 4},
	ULong:      {4, 4},
	LongLong:   {8, 8},
	ULongLong:  {8, 8},
	Float:      {4, 4},
	Double:     {8, 8},
	LongDouble: {16, 16},
}

// gcc's DWARF base type names.
var gccSpellings = map[ScalarKind]string{
	Bool:       "_Bool",
	Short:      "short int",
	UShort:     "short unsigned int",
	Long:       "long int",
	ULong:      "long unsigned int",
	LongLong:   "long long int",
	ULongLong:  "long long unsigned int",
	Char:       "char",
	SChar:      "signed char",
	UChar:      "unsigned char",
	Int:        "int",
	UInt:       "unsigned int",
	Float:      "float",
	Double:     "double",
	LongDouble: "long double",
}

var clangSpellings = map[ScalarKind]string{
	Bool: "_Bool",
}

var lp64FixedWidth = map[string]ScalarKind{
	"int8_t":    SChar,
	"int16_t":   Short,
	"int32_t":   Int,
	"int64_t":   Long,
	"uint8_t":   UChar,
	"uint16_t":  UShort,
	"uint32_t":  UInt,
	"uint64_t":  ULong,
	"intptr_t":  Long,
	"uintptr_t": ULong,
	"size_t":    ULong,
	"ssize_t":   Long,
	"ptrdiff_t": Long,
}

var ilp32FixedWidth = map[string]ScalarKind{
	"int8_t":    SChar,
	"int16_t":   Short,
	"int32_t":   Int,
	"int64_t":   LongLong,
	"uint8_t":   UChar,
	"uint16_t":  UShort,
	"uint32_t":  UInt,
	"uint64_t":  ULongLong,
	"intptr_t":  Long,
	"uintptr_t": ULong,
	"size_t":    ULong,
	"ssize_t":   Long,
	"ptrdiff_t": Long,
}

// Holes every profile surfaces: they change what a reader can infer from
// the member list alone.
var baseSurface = Holes(HoleBeforeAggregate, HoleBeforeAlias, HoleBitRemainder)

// Reference is the LP64 profile as seen through gcc: scalar alignment gaps
// stay implicit, nested aggregates are listed before their users.
var Reference = &Profile{
	Name:       "reference",
	Scalars:    lp64Scalars,
	Pointer:    Layout{8, 8},
	Spellings:  gccSpellings,
	FixedWidth: lp64FixedWidth,
	Surface:    baseSurface,
	Order:      OrderDependency,
}

// Explicit is the LP64 profile as seen through clang (zig cc): every scalar
// alignment gap and tail padding is reported.
var Explicit = &Profile{
	Name:       "explicit",
	Scalars:    lp64Scalars,
	Pointer:    Layout{8, 8},
	Spellings:  clangSpellings,
	FixedWidth: lp64FixedWidth,
	Surface:    baseSurface | Holes(HoleBeforeScalar, HoleTrailing),
	Order:      OrderFirstReference,
}

// Wasm32 is the ILP32 WebAssembly target.
var Wasm32 = &Profile{
	Name:       "wasm32",
	Scalars:    ilp32Scalars,
	Pointer:    Layout{4, 4},
	Spellings:  clangSpellings,
	FixedWidth: ilp32FixedWidth,
	Surface:    baseSurface | Holes(HoleBeforeScalar, HoleTrailing),
	Order:      OrderFirstReference,
}

// Default is the profile used when none is selected.
var Default = Reference

var (
	registryMu sync.RWMutex
	registry   = map[string]*Profile{
		Reference.Name: Reference,
		Explicit.Name:  Explicit,
		Wasm32.Name:    Wasm32,
	}
)

// Register adds p to the registry, replacing any profile of the same name.
func Register(p *Profile) error {
	if err := p.validate(); err != nil {
		return err
	}
	registryMu.Lock()
	registry[p.Name] = p
	registryMu.Unlock()
	return nil
}

// Lookup returns the registered profile called name.
func Lookup(name string) (*Profile, error) {
	registryMu.RLock()
	p, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseProfile, "profile", name)
	}
	return p, nil
}

// Names lists registered profile names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
