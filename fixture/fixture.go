// Package fixture loads layout conformance cases and checks them against
// the resolver.
//
// A source fixture is a .c or .cpp file ending in the expected report,
// written as a contiguous block of // comment lines. A markdown document
// holds several cases, each opened by a "Layout: <name>" heading.
package fixture

import (
	"bufio"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/wippyai/structlayout/errors"
)

// Case is one source text with its expected report.
type Case struct {
	Name     string
	Path     string
	Source   string
	Expected string
	// Profiles names the profiles a markdown case pins; empty defers to the
	// manifest.
	Profiles []string
	Line     int
}

// LoadFile reads a .c or .cpp fixture.
func LoadFile(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseFixture, errors.KindNotFound, err, "read fixture")
	}
	c, err := Parse(filepath.Base(path), string(data))
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}

// Parse splits content into the source and the trailing expected block.
func Parse(name, content string) (*Case, error) {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}

	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	start := end
	for start > 0 && strings.HasPrefix(lines[start-1], "//") {
		start--
	}
	if start == end {
		return nil, errors.New(errors.PhaseFixture, errors.KindInvalidInput).
			Path(name).
			Detail("no expected layout block").
			Build()
	}

	var want strings.Builder
	for _, l := range lines[start:end] {
		want.WriteString(strings.TrimPrefix(l, "//"))
		want.WriteByte('\n')
	}
	return &Case{
		Name:     name,
		Source:   strings.Join(lines[:start], "\n"),
		Expected: want.String(),
		Line:     start + 1,
	}, nil
}

// LoadDir walks root for .c, .cpp and .md fixtures. Case names are paths
// relative to root with forward slashes; markdown cases append "#<heading>".
func LoadDir(root string) ([]*Case, error) {
	var cases []*Case
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch filepath.Ext(path) {
		case ".c", ".cpp":
			c, err := LoadFile(path)
			if err != nil {
				return err
			}
			c.Name = rel
			cases = append(cases, c)
		case ".md":
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			mc, err := ParseMarkdown(rel, string(data))
			if err != nil {
				return err
			}
			for _, c := range mc {
				c.Path = path
			}
			cases = append(cases, mc...)
		}
		return nil
	})
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return nil, err
		}
		return nil, errors.Wrap(errors.PhaseFixture, errors.KindNotFound, err, "walk "+root)
	}
	return cases, nil
}

// File returns the manifest key of c: its name without a markdown heading.
func (c *Case) File() string {
	name, _, _ := strings.Cut(c.Name, "#")
	return name
}
