package parser

import (
	"strings"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/cdecl/internal/token"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/typegraph"
)

// parseUnit parses declarations until end of input, or until a closing
// brace when nested.
func (p *Parser) parseUnit(nested bool) error {
	for {
		t := p.peek()
		if t == nil {
			if nested {
				return p.errorf("expected \"}\", got end of input")
			}
			return nil
		}
		if nested && p.is("}") {
			return nil
		}
		if err := p.parseTopDecl(); err != nil {
			return err
		}
	}
}

func (p *Parser) parseTopDecl() error {
	switch {
	case p.accept(";"):
		return nil
	case p.is("namespace"):
		return p.parseNamespace()
	case p.is("inline") && p.peekAt(1) != nil && p.peekAt(1).Value == "namespace":
		p.pos++
		return p.parseNamespace()
	case p.is("typedef"):
		return p.parseTypedef()
	case p.is("extern") && p.peekAt(1) != nil && p.peekAt(1).Type == token.String:
		p.pos += 2
		if p.is("{") {
			p.pos++
			if err := p.parseUnit(true); err != nil {
				return err
			}
			_, err := p.expect("}")
			return err
		}
		return p.parseTopDecl()
	case p.is("using"), p.is("static_assert"), p.is("_Static_assert"):
		return p.skipStatement()
	case p.is("template"):
		return p.errorf("templates are not supported")
	}

	spec, err := p.parseSpec()
	if err != nil {
		return err
	}
	if p.accept(";") {
		return nil
	}
	for {
		d, err := p.parseDeclarator(spec.typ)
		if err != nil {
			return err
		}
		if p.is("(") {
			return p.parseFunction(d)
		}
		if p.accept("=") {
			if err := p.skipInitializer(); err != nil {
				return err
			}
		}
		if p.accept(",") {
			continue
		}
		_, err = p.expect(";")
		return err
	}
}

func (p *Parser) parseNamespace() error {
	if _, err := p.expect("namespace"); err != nil {
		return err
	}
	var name []string
	if !p.is("{") {
		var err error
		if name, err = p.qualifiedName(); err != nil {
			return err
		}
	}
	if _, err := p.expect("{"); err != nil {
		return err
	}
	saved := p.scope
	p.scope = p.qualify(name)
	if err := p.parseUnit(true); err != nil {
		return err
	}
	p.scope = saved
	_, err := p.expect("}")
	return err
}

func (p *Parser) parseTypedef() error {
	if _, err := p.expect("typedef"); err != nil {
		return err
	}
	spec, err := p.parseSpec()
	if err != nil {
		return err
	}
	for first := true; ; first = false {
		line := p.line()
		d, err := p.parseDeclarator(spec.typ)
		if err != nil {
			return err
		}
		if d.name == "" {
			return errors.Syntax(line, "typedef without a name")
		}
		if p.is("(") {
			// function type: usable only behind a pointer
			if err := p.skipGroup("(", ")"); err != nil {
				return err
			}
			d.typ = typegraph.Unresolved{Name: d.name}
		}

		path := p.qualify([]string{d.name})
		key := strings.Join(path, "::")
		if _, isRef := d.typ.(typegraph.AggregateRef); first && isRef && spec.anon != nil {
			if err := p.b.Name(spec.anon, path); err != nil {
				return errors.New(errors.PhaseParse, errors.KindSyntax).Line(line).Cause(err).Detail("typedef %s", d.name).Build()
			}
			p.typedefs[key] = d.typ
		} else {
			p.typedefs[key] = typegraph.Typedef{Name: d.name, Underlying: d.typ}
		}

		if p.accept(",") {
			continue
		}
		_, err = p.expect(";")
		return err
	}
}

// parseFunction handles a declarator followed by a parameter list: a
// prototype or a definition, both recorded as entry points.
func (p *Parser) parseFunction(d declarator) error {
	params, err := p.parseParams()
	if err != nil {
		return err
	}
	if err := p.skipFunctionTail(); err != nil {
		return err
	}
	p.addEntry(d.name, params)
	return nil
}

// skipFunctionTail skips qualifiers, initializer lists and the body or
// terminating ';' that follow a parameter list.
func (p *Parser) skipFunctionTail() error {
	for {
		switch {
		case p.peek() == nil:
			return p.errorf("unexpected end of input after parameter list")
		case p.is("{"):
			return p.skipGroup("{", "}")
		case p.accept(";"):
			return nil
		case p.is("("):
			if err := p.skipGroup("(", ")"); err != nil {
				return err
			}
		default:
			p.pos++
		}
	}
}

func (p *Parser) addEntry(name string, params []typegraph.TypeRef) {
	if name == "" {
		return
	}
	p.b.AddEntry(name, params...)
}

func (p *Parser) parseParams() ([]typegraph.TypeRef, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	if p.accept(")") {
		return nil, nil
	}
	if p.is("void") && p.peekAt(1) != nil && p.peekAt(1).Value == ")" {
		p.pos += 2
		return nil, nil
	}
	var params []typegraph.TypeRef
	for {
		if p.accept("...") {
			_, err := p.expect(")")
			return params, err
		}
		spec, err := p.parseSpec()
		if err != nil {
			return nil, err
		}
		d, err := p.parseDeclarator(spec.typ)
		if err != nil {
			return nil, err
		}
		if p.is("(") {
			if err := p.skipGroup("(", ")"); err != nil {
				return nil, err
			}
			d.typ = typegraph.Pointer{Elem: typegraph.Scalar{Kind: abi.Void}}
		}
		if arr, ok := d.typ.(typegraph.Array); ok {
			d.typ = typegraph.Pointer{Elem: arr.Elem}
		}
		params = append(params, d.typ)
		if p.accept("=") {
			if err := p.skipParamDefault(); err != nil {
				return nil, err
			}
		}
		if p.accept(",") {
			continue
		}
		_, err = p.expect(")")
		return params, err
	}
}

func (p *Parser) skipParamDefault() error {
	for {
		switch {
		case p.peek() == nil:
			return p.errorf("unexpected end of input in default argument")
		case p.is(",") || p.is(")"):
			return nil
		case p.is("("):
			if err := p.skipGroup("(", ")"); err != nil {
				return err
			}
		case p.is("{"):
			if err := p.skipGroup("{", "}"); err != nil {
				return err
			}
		default:
			p.pos++
		}
	}
}
