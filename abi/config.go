package abi

import (
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/wippyai/structlayout/errors"
)

type layoutDoc struct {
	Size  uint32 `yaml:"size"`
	Align uint32 `yaml:"align"`
}

// profileDoc is the YAML form of a Profile. Scalar kinds are keyed by their
// canonical names ("unsigned long", "long double").
type profileDoc struct {
	Scalars    map[string]layoutDoc `yaml:"scalars,omitempty"`
	Spellings  map[string]string    `yaml:"spellings,omitempty"`
	FixedWidth map[string]string    `yaml:"fixed_width,omitempty"`
	Pointer    *layoutDoc           `yaml:"pointer,omitempty"`
	Name       string               `yaml:"name"`
	Base       string               `yaml:"base,omitempty"`
	Order      string               `yaml:"order,omitempty"`
	Surface    []string             `yaml:"surface,omitempty"`
}

// Load reads a YAML profile. A document naming a base starts from a copy of
// that registered profile and overrides only what it lists; without a base
// the document must be complete.
func Load(r io.Reader) (*Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProfile, errors.KindInvalidInput, err, "read profile")
	}

	var doc profileDoc
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, errors.Wrap(errors.PhaseProfile, errors.KindInvalidInput, err, "decode profile")
	}

	p, err := doc.profile()
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFile reads a YAML profile from path.
func LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProfile, errors.KindNotFound, err, "open profile")
	}
	defer f.Close()
	return Load(f)
}

func (doc *profileDoc) profile() (*Profile, error) {
	var p *Profile
	if doc.Base != "" {
		base, err := Lookup(doc.Base)
		if err != nil {
			return nil, err
		}
		p = base.Clone(doc.Name)
	} else {
		p = &Profile{
			Name:       doc.Name,
			Scalars:    make(map[ScalarKind]Layout),
			Spellings:  make(map[ScalarKind]string),
			FixedWidth: make(map[string]ScalarKind),
			Order:      OrderDependency,
		}
		if doc.Pointer == nil {
			return nil, errors.InvalidInput(errors.PhaseProfile, "profile "+doc.Name+": pointer layout is required without a base")
		}
	}

	if doc.Pointer != nil {
		p.Pointer = Layout{Size: doc.Pointer.Size, Align: doc.Pointer.Align}
	}
	for name, l := range doc.Scalars {
		k, err := kindNamed(name)
		if err != nil {
			return nil, err
		}
		p.Scalars[k] = Layout{Size: l.Size, Align: l.Align}
	}
	for name, spelling := range doc.Spellings {
		k, err := kindNamed(name)
		if err != nil {
			return nil, err
		}
		p.Spellings[k] = spelling
	}
	for typedef, name := range doc.FixedWidth {
		k, err := kindNamed(name)
		if err != nil {
			return nil, err
		}
		p.FixedWidth[typedef] = k
	}
	if doc.Surface != nil {
		p.Surface = 0
		for _, name := range doc.Surface {
			c, ok := ParseHoleClass(name)
			if !ok {
				return nil, errors.InvalidInput(errors.PhaseProfile, "unknown hole class "+name)
			}
			p.Surface |= Holes(c)
		}
	}
	if doc.Order != "" {
		p.Order = BlockOrder(doc.Order)
	}
	return p, nil
}

func kindNamed(name string) (ScalarKind, error) {
	k, ok := ParseKind(name)
	if !ok {
		return 0, errors.New(errors.PhaseProfile, errors.KindInvalidInput).
			Type(name).
			Detail("unknown scalar kind").
			Build()
	}
	return k, nil
}

// Encode writes p as a complete YAML profile document.
func Encode(w io.Writer, p *Profile) error {
	doc := profileDoc{
		Name:       p.Name,
		Pointer:    &layoutDoc{Size: p.Pointer.Size, Align: p.Pointer.Align},
		Scalars:    make(map[string]layoutDoc, len(p.Scalars)),
		Spellings:  make(map[string]string, len(p.Spellings)),
		FixedWidth: make(map[string]string, len(p.FixedWidth)),
		Order:      string(p.Order),
	}
	for k, l := range p.Scalars {
		doc.Scalars[k.String()] = layoutDoc{Size: l.Size, Align: l.Align}
	}
	for k, s := range p.Spellings {
		if s != k.String() {
			doc.Spellings[k.String()] = s
		}
	}
	for name, k := range p.FixedWidth {
		doc.FixedWidth[name] = k.String()
	}
	for _, c := range p.Surface.Classes() {
		doc.Surface = append(doc.Surface, c.String())
	}
	sort.Strings(doc.Surface)

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(errors.PhaseProfile, errors.KindInvalidInput, err, "encode profile")
	}
	_, err = w.Write(data)
	return err
}
