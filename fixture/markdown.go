package fixture

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/wippyai/structlayout/errors"
)

const headingPrefix = "Layout: "

// Fence info strings understood inside a case.
const (
	FenceC       = "c"
	FenceCPP     = "cpp"
	FenceLayout  = "layout"
	FenceProfile = "profile"
)

// ParseMarkdown extracts the cases of a markdown document. Fences without
// an info string are ignored; any other fence outside a case, an unknown
// fence inside one, or a case lacking its source or layout is an error.
func ParseMarkdown(name, content string) ([]*Case, error) {
	source := []byte(content)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []*Case
	var cur *Case

	finish := func() error {
		if cur == nil {
			return nil
		}
		if cur.Source == "" {
			return caseError(cur, "case has no c or cpp fence")
		}
		if cur.Expected == "" {
			return caseError(cur, "case has no layout fence")
		}
		cases = append(cases, cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			title := nodeText(n, source)
			if !strings.HasPrefix(title, headingPrefix) {
				return ast.WalkSkipChildren, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Case{
				Name: name + "#" + strings.TrimSpace(strings.TrimPrefix(title, headingPrefix)),
				Line: lineOf(n, source),
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			if lang == "" {
				return ast.WalkContinue, nil
			}
			line := lineOf(n, source)
			if cur == nil {
				return ast.WalkStop, errors.New(errors.PhaseFixture, errors.KindInvalidInput).
					Path(name).
					Line(line).
					Detail("%s fence outside of a case", lang).
					Build()
			}
			body := fenceText(n, source)
			switch lang {
			case FenceC, FenceCPP:
				if cur.Source != "" {
					return ast.WalkStop, caseError(cur, "multiple source fences")
				}
				cur.Source = body
			case FenceLayout:
				if cur.Expected != "" {
					return ast.WalkStop, caseError(cur, "multiple layout fences")
				}
				cur.Expected = body
			case FenceProfile:
				cur.Profiles = append(cur.Profiles, strings.Fields(body)...)
			default:
				return ast.WalkStop, errors.New(errors.PhaseFixture, errors.KindInvalidInput).
					Path(cur.Name).
					Line(line).
					Detail("unknown fence %q", lang).
					Build()
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func caseError(c *Case, detail string) error {
	return errors.New(errors.PhaseFixture, errors.KindInvalidInput).
		Path(c.Name).
		Line(c.Line).
		Detail("%s", detail).
		Build()
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceText(n *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based line of the node's first line.
func lineOf(n ast.Node, source []byte) int {
	if n.Lines().Len() == 0 {
		return 1
	}
	start := n.Lines().At(0).Start
	return bytes.Count(source[:min(start, len(source))], []byte{'\n'}) + 1
}
