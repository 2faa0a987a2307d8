package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/errors"
)

// ProfileList is one or more profile references. In YAML it is either a
// single string or a sequence.
type ProfileList []string

// UnmarshalYAML accepts a scalar or a sequence.
func (l *ProfileList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var one string
	if err := unmarshal(&one); err == nil {
		*l = ProfileList{one}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Manifest maps fixture paths to the profiles they are checked under.
// A profile reference is a registered profile name or a YAML profile file
// relative to the manifest.
type Manifest struct {
	Profiles map[string]ProfileList `yaml:"profiles"`
	Default  ProfileList            `yaml:"default"`

	dir    string
	mu     sync.Mutex
	loaded map[string]*abi.Profile
}

// LoadManifest reads a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseFixture, errors.KindNotFound, err, "read manifest")
	}
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseFixture, errors.KindInvalidInput, err, "decode manifest")
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Lookup returns the profile references for a slash-separated fixture path,
// taken from the longest matching prefix. A prefix matches whole path
// elements only.
func (m *Manifest) Lookup(rel string) ProfileList {
	best := -1
	var refs ProfileList
	for prefix, l := range m.Profiles {
		if rel != prefix && !strings.HasPrefix(rel, strings.TrimSuffix(prefix, "/")+"/") {
			continue
		}
		if len(prefix) > best {
			best, refs = len(prefix), l
		}
	}
	if best < 0 {
		refs = m.Default
	}
	if len(refs) == 0 {
		return ProfileList{abi.Default.Name}
	}
	return refs
}

// ProfilesFor resolves the profiles c is checked under: its own pinned
// profiles first, the manifest otherwise. m may be nil.
func (m *Manifest) ProfilesFor(c *Case) ([]*abi.Profile, error) {
	refs := ProfileList(c.Profiles)
	if len(refs) == 0 {
		if m == nil {
			return []*abi.Profile{abi.Default}, nil
		}
		refs = m.Lookup(c.File())
	}

	out := make([]*abi.Profile, 0, len(refs))
	for _, ref := range refs {
		p, err := m.resolve(ref)
		if err != nil {
			return nil, errors.WithPath(asError(err), c.Name, "")
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Manifest) resolve(ref string) (*abi.Profile, error) {
	if !strings.HasSuffix(ref, ".yaml") && !strings.HasSuffix(ref, ".yml") {
		return abi.Lookup(ref)
	}
	if m == nil {
		return abi.LoadFile(ref)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.loaded[ref]; ok {
		return p, nil
	}
	p, err := abi.LoadFile(filepath.Join(m.dir, ref))
	if err != nil {
		return nil, err
	}
	if m.loaded == nil {
		m.loaded = make(map[string]*abi.Profile)
	}
	m.loaded[ref] = p
	return p, nil
}

func asError(err error) *errors.Error {
	if e, ok := err.(*errors.Error); ok {
		return e
	}
	return errors.Wrap(errors.PhaseFixture, errors.KindInvalidInput, err, "resolve profile")
}
