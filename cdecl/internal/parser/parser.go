package parser

import (
	"strings"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/cdecl/internal/token"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/typegraph"
)

// Parser turns a token stream of C/C++ declarations into a type graph.
type Parser struct {
	profile  *abi.Profile
	b        *typegraph.Builder
	typedefs map[string]typegraph.TypeRef
	consts   map[string]int64
	tokens   []token.Token
	scope    []string
	pos      int
}

func New(tokens []token.Token, p *abi.Profile) *Parser {
	return &Parser{
		profile:  p,
		b:        typegraph.NewBuilder(),
		typedefs: make(map[string]typegraph.TypeRef),
		consts:   make(map[string]int64),
		tokens:   tokens,
	}
}

func (p *Parser) Parse() (*typegraph.Graph, error) {
	if err := p.parseUnit(false); err != nil {
		return nil, err
	}
	return p.b.Build()
}

func (p *Parser) peek() *token.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) *token.Token {
	if p.pos+n >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos+n]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

// is reports whether the next token is the punctuation or keyword v.
func (p *Parser) is(v string) bool {
	t := p.peek()
	return t != nil && t.Value == v && (t.Type == token.Punct || t.Type == token.Ident)
}

func (p *Parser) accept(v string) bool {
	if p.is(v) {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) expect(v string) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, p.errorf("expected %q, got end of input", v)
	}
	if t.Value != v || (t.Type != token.Punct && t.Type != token.Ident) {
		return nil, errors.Syntax(t.Line, "expected %q, got %q", v, t.Value)
	}
	return t, nil
}

func (p *Parser) expectIdent() (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, p.errorf("expected identifier, got end of input")
	}
	if t.Type != token.Ident {
		return nil, errors.Syntax(t.Line, "expected identifier, got %q", t.Value)
	}
	return t, nil
}

// line returns the line of the next token, or of the last one at end of input.
func (p *Parser) line() int {
	if t := p.peek(); t != nil {
		return t.Line
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1].Line
	}
	return 1
}

func (p *Parser) errorf(format string, args ...any) error {
	return errors.Syntax(p.line(), format, args...)
}

// qualify prefixes name with the current namespace.
func (p *Parser) qualify(name []string) []string {
	path := make([]string, 0, len(p.scope)+len(name))
	path = append(path, p.scope...)
	return append(path, name...)
}

// candidates lists the keys name may refer to from the current scope,
// innermost first.
func (p *Parser) candidates(name []string) []string {
	keys := make([]string, 0, len(p.scope)+1)
	for i := len(p.scope); i >= 0; i-- {
		path := append(append([]string(nil), p.scope[:i]...), name...)
		keys = append(keys, strings.Join(path, "::"))
	}
	return keys
}

func (p *Parser) lookupAggregate(name []string) *typegraph.Aggregate {
	for _, key := range p.candidates(name) {
		if a, ok := p.b.Lookup(strings.Split(key, "::")); ok {
			return a
		}
	}
	return nil
}

func (p *Parser) lookupTypedef(name []string) typegraph.TypeRef {
	for _, key := range p.candidates(name) {
		if t, ok := p.typedefs[key]; ok {
			return t
		}
	}
	return nil
}

// lookupType binds a type name used without a keyword: typedefs first,
// then aggregates (C++), then the profile's fixed-width names.
func (p *Parser) lookupType(name []string) typegraph.TypeRef {
	if t := p.lookupTypedef(name); t != nil {
		return t
	}
	if a := p.lookupAggregate(name); a != nil {
		return typegraph.AggregateRef{Agg: a}
	}
	if len(name) == 1 {
		if k, ok := p.profile.Standard(name[0]); ok {
			return typegraph.Typedef{Name: name[0], Standard: true, Underlying: typegraph.Scalar{Kind: k}}
		}
	}
	return typegraph.Unresolved{Name: strings.Join(name, "::")}
}

func (p *Parser) qualifiedName() ([]string, error) {
	var name []string
	p.accept("::")
	for {
		t, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		name = append(name, t.Value)
		if !p.accept("::") {
			return name, nil
		}
	}
}

// skipGroup skips a balanced group starting at the open token.
func (p *Parser) skipGroup(open, close string) error {
	start := p.line()
	if _, err := p.expect(open); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		t := p.next()
		if t == nil {
			return errors.Syntax(start, "unterminated %q", open)
		}
		if t.Type != token.Punct {
			continue
		}
		switch t.Value {
		case open:
			depth++
		case close:
			depth--
		}
	}
	return nil
}

// skipStatement skips to the terminating ';' at depth zero, or past a
// braced block when one comes first.
func (p *Parser) skipStatement() error {
	for {
		t := p.peek()
		if t == nil {
			return p.errorf("unexpected end of input")
		}
		switch {
		case p.is(";"):
			p.pos++
			return nil
		case p.is("{"):
			if err := p.skipGroup("{", "}"); err != nil {
				return err
			}
			p.accept(";")
			return nil
		case p.is("("):
			if err := p.skipGroup("(", ")"); err != nil {
				return err
			}
		case p.is("["):
			if err := p.skipGroup("[", "]"); err != nil {
				return err
			}
		default:
			p.pos++
		}
	}
}

// skipInitializer skips a default value up to the next ',' or ';' at depth zero.
func (p *Parser) skipInitializer() error {
	if p.is(",") || p.is(";") {
		return p.errorf("expected an initializer")
	}
	for {
		switch {
		case p.peek() == nil:
			return p.errorf("unexpected end of input in initializer")
		case p.is(",") || p.is(";"):
			return nil
		case p.is("{"):
			if err := p.skipGroup("{", "}"); err != nil {
				return err
			}
		case p.is("("):
			if err := p.skipGroup("(", ")"); err != nil {
				return err
			}
		default:
			p.pos++
		}
	}
}
