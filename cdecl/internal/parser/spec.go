package parser

import (
	"strconv"
	"strings"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/cdecl/internal/token"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/typegraph"
)

// specifier is the type part of a declaration.
type specifier struct {
	typ typegraph.TypeRef
	// anon is set when the specifier defines an anonymous aggregate.
	anon   *typegraph.Aggregate
	static bool
}

// declarator is the part of a declaration naming one entity.
type declarator struct {
	typ  typegraph.TypeRef
	name string
}

type scalarWords struct {
	base     string
	longs    int
	signed   bool
	unsigned bool
	short    bool
}

func (w *scalarWords) any() bool {
	return w.base != "" || w.longs > 0 || w.signed || w.unsigned || w.short
}

func (w *scalarWords) add(word string) bool {
	switch word {
	case "signed":
		w.signed = true
	case "unsigned":
		w.unsigned = true
	case "short":
		w.short = true
	case "long":
		w.longs++
		return w.longs <= 2
	default:
		if w.base != "" {
			return false
		}
		w.base = word
	}
	return !(w.signed && w.unsigned)
}

func (w *scalarWords) kind() abi.ScalarKind {
	switch w.base {
	case "void":
		return abi.Void
	case "bool", "_Bool":
		return abi.Bool
	case "float":
		return abi.Float
	case "double":
		if w.longs > 0 {
			return abi.LongDouble
		}
		return abi.Double
	case "char":
		switch {
		case w.unsigned:
			return abi.UChar
		case w.signed:
			return abi.SChar
		}
		return abi.Char
	}
	switch {
	case w.short && w.unsigned:
		return abi.UShort
	case w.short:
		return abi.Short
	case w.longs == 2 && w.unsigned:
		return abi.ULongLong
	case w.longs == 2:
		return abi.LongLong
	case w.longs == 1 && w.unsigned:
		return abi.ULong
	case w.longs == 1:
		return abi.Long
	case w.unsigned:
		return abi.UInt
	}
	return abi.Int
}

func (p *Parser) parseSpec() (specifier, error) {
	var s specifier
	var words scalarWords
	line := p.line()

loop:
	for {
		t := p.peek()
		if t == nil || (t.Type != token.Ident && t.Value != "::") {
			break
		}
		switch t.Value {
		case "const", "volatile", "register", "inline", "__inline", "__inline__",
			"extern", "mutable", "constexpr", "restrict", "__restrict", "__restrict__",
			"_Noreturn", "virtual", "explicit", "typename", "__extension__":
			p.pos++
		case "static", "thread_local", "_Thread_local":
			s.static = true
			p.pos++
		case "__attribute__", "__declspec", "alignas", "_Alignas":
			p.pos++
			if p.is("(") {
				if err := p.skipGroup("(", ")"); err != nil {
					return s, err
				}
			}
		case "signed", "unsigned", "short", "long", "int", "char", "float", "double", "void", "bool", "_Bool":
			if s.typ != nil || !words.add(t.Value) {
				return s, errors.Syntax(t.Line, "conflicting type specifier %q", t.Value)
			}
			p.pos++
		case "struct", "union", "class":
			if s.typ != nil || words.any() {
				return s, errors.Syntax(t.Line, "conflicting type specifier %q", t.Value)
			}
			typ, anon, err := p.parseAggregate()
			if err != nil {
				return s, err
			}
			s.typ, s.anon = typ, anon
		case "enum":
			if s.typ != nil || words.any() {
				return s, errors.Syntax(t.Line, "conflicting type specifier %q", t.Value)
			}
			typ, err := p.parseEnum()
			if err != nil {
				return s, err
			}
			s.typ = typ
		default:
			if s.typ != nil || words.any() {
				break loop
			}
			name, err := p.qualifiedName()
			if err != nil {
				return s, err
			}
			s.typ = p.lookupType(name)
		}
	}

	if s.typ == nil {
		if !words.any() {
			if t := p.peek(); t != nil {
				return s, errors.Syntax(t.Line, "expected type, got %q", t.Value)
			}
			return s, errors.Syntax(line, "expected type, got end of input")
		}
		s.typ = typegraph.Scalar{Kind: words.kind()}
	}
	return s, nil
}

func (p *Parser) parseAggregate() (typegraph.TypeRef, *typegraph.Aggregate, error) {
	kw := typegraph.Keyword(p.next().Value)
	if err := p.skipAttributes(); err != nil {
		return nil, nil, err
	}

	var name []string
	if t := p.peek(); t != nil && (t.Type == token.Ident || t.Value == "::") {
		var err error
		if name, err = p.qualifiedName(); err != nil {
			return nil, nil, err
		}
	}
	p.accept("final")
	if name != nil && p.is(":") {
		return nil, nil, p.errorf("base classes are not supported (%s)", strings.Join(name, "::"))
	}

	if !p.is("{") {
		if name == nil {
			return nil, nil, p.errorf("expected %s name or body", kw)
		}
		a := p.lookupAggregate(name)
		if a == nil {
			a = p.b.Declare(p.qualify(name), kw)
		}
		return typegraph.AggregateRef{Agg: a}, nil, nil
	}

	var a *typegraph.Aggregate
	switch {
	case name == nil:
		a = p.b.Anonymous(kw)
	case len(name) > 1:
		a = p.lookupAggregate(name)
	}
	if a == nil {
		a = p.b.Declare(p.qualify(name), kw)
	}

	line := p.line()
	fields, err := p.parseBody()
	if err != nil {
		return nil, nil, err
	}
	if err := p.b.Define(a, fields); err != nil {
		return nil, nil, errors.New(errors.PhaseParse, errors.KindSyntax).
			Line(line).
			Cause(err).
			Detail("cannot define %s", a.QualifiedName()).
			Build()
	}
	ref := typegraph.AggregateRef{Agg: a}
	if name == nil {
		return ref, a, nil
	}
	return ref, nil, nil
}

func (p *Parser) skipAttributes() error {
	for p.is("__attribute__") || p.is("__declspec") || p.is("alignas") || p.is("_Alignas") {
		p.pos++
		if p.is("(") {
			if err := p.skipGroup("(", ")"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) parseBody() ([]typegraph.Field, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	var fields []typegraph.Field
	for !p.accept("}") {
		if p.peek() == nil {
			return nil, p.errorf("expected \"}\", got end of input")
		}
		if err := p.parseMember(&fields); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func (p *Parser) parseMember(fields *[]typegraph.Field) error {
	switch {
	case p.accept(";"):
		return nil
	case (p.is("public") || p.is("private") || p.is("protected")) && p.peekAt(1) != nil && p.peekAt(1).Value == ":":
		p.pos += 2
		return nil
	case p.is("~"), p.is("friend"), p.is("using"), p.is("template"),
		p.is("static_assert"), p.is("_Static_assert"), p.is("operator"):
		return p.skipStatement()
	case p.is("typedef"):
		return p.parseTypedef()
	}

	spec, err := p.parseSpec()
	if err != nil {
		return err
	}
	if spec.static {
		return p.skipStatement()
	}
	if p.accept(";") {
		if spec.anon != nil {
			*fields = append(*fields, typegraph.Field{Type: typegraph.AggregateRef{Agg: spec.anon}})
		}
		return nil
	}

	for {
		line := p.line()
		d := declarator{typ: spec.typ}
		if !p.is(":") {
			if d, err = p.parseDeclarator(spec.typ); err != nil {
				return err
			}
		}
		if p.is("(") {
			if _, err := p.parseParams(); err != nil {
				return err
			}
			return p.skipFunctionTail()
		}

		f := typegraph.Field{Name: d.name, Type: d.typ}
		if p.accept(":") {
			w, err := p.parseConstant()
			if err != nil {
				return err
			}
			if w < 0 {
				return errors.Syntax(line, "negative bitfield width %d", w)
			}
			f.Bitfield = true
			f.BitWidth = uint32(w)
		}
		if f.Name == "" && !f.Bitfield {
			return errors.Syntax(line, "member without a name")
		}
		if p.accept("=") || p.is("{") {
			if err := p.skipInitializer(); err != nil {
				return err
			}
		}
		*fields = append(*fields, f)

		if p.accept(",") {
			continue
		}
		_, err = p.expect(";")
		return err
	}
}

func (p *Parser) parseDeclarator(base typegraph.TypeRef) (declarator, error) {
	d := declarator{typ: base}

pointers:
	for {
		switch {
		case p.accept("*"), p.accept("&"), p.accept("&&"):
			d.typ = typegraph.Pointer{Elem: d.typ}
		case p.is("const"), p.is("volatile"), p.is("restrict"), p.is("__restrict"), p.is("__restrict__"):
			p.pos++
		default:
			break pointers
		}
	}

	// function pointer: (*name[dims])(params)
	if p.is("(") && p.peekAt(1) != nil && (p.peekAt(1).Value == "*" || p.peekAt(1).Value == "&") {
		p.pos += 2
		for p.accept("*") {
		}
		if t := p.peek(); t != nil && t.Type == token.Ident {
			d.name = t.Value
			p.pos++
		}
		dims, err := p.parseDims()
		if err != nil {
			return d, err
		}
		if _, err := p.expect(")"); err != nil {
			return d, err
		}
		if p.is("(") {
			if err := p.skipGroup("(", ")"); err != nil {
				return d, err
			}
		}
		d.typ = wrapArrays(typegraph.Pointer{Elem: typegraph.Scalar{Kind: abi.Void}}, dims)
		return d, nil
	}

	if t := p.peek(); t != nil && (t.Type == token.Ident || t.Value == "::") {
		if t.Value == "operator" {
			p.pos++
			if p.is("(") && p.peekAt(1) != nil && p.peekAt(1).Value == ")" {
				p.pos += 2
			}
			for p.peek() != nil && !p.is("(") {
				p.pos++
			}
			d.name = "operator"
			return d, nil
		}
		name, err := p.qualifiedName()
		if err != nil {
			return d, err
		}
		d.name = strings.Join(name, "::")
	}

	dims, err := p.parseDims()
	if err != nil {
		return d, err
	}
	d.typ = wrapArrays(d.typ, dims)
	return d, p.skipAttributes()
}

func (p *Parser) parseDims() ([]uint32, error) {
	var dims []uint32
	for p.is("[") {
		line := p.line()
		p.pos++
		if p.accept("]") {
			dims = append(dims, 0)
			continue
		}
		n, err := p.parseConstant()
		if err != nil {
			return nil, err
		}
		if n < 0 || n > 1<<32-1 {
			return nil, errors.Syntax(line, "invalid array length %d", n)
		}
		if _, err := p.expect("]"); err != nil {
			return nil, err
		}
		dims = append(dims, uint32(n))
	}
	return dims, nil
}

// wrapArrays applies dims to t, outermost first: int a[2][3] is an array
// of 2 arrays of 3 ints.
func wrapArrays(t typegraph.TypeRef, dims []uint32) typegraph.TypeRef {
	for i := len(dims) - 1; i >= 0; i-- {
		t = typegraph.Array{Elem: t, Len: dims[i]}
	}
	return t
}

func (p *Parser) parseEnum() (typegraph.TypeRef, error) {
	p.pos++
	if !p.accept("class") {
		p.accept("struct")
	}
	if err := p.skipAttributes(); err != nil {
		return nil, err
	}

	var name []string
	if t := p.peek(); t != nil && (t.Type == token.Ident || t.Value == "::") {
		var err error
		if name, err = p.qualifiedName(); err != nil {
			return nil, err
		}
	}
	var underlying typegraph.TypeRef = typegraph.Scalar{Kind: abi.UInt}
	if p.accept(":") {
		spec, err := p.parseSpec()
		if err != nil {
			return nil, err
		}
		underlying = spec.typ
	}

	if !p.is("{") {
		if name == nil {
			return nil, p.errorf("expected enum name or body")
		}
		if t := p.lookupTypedef(name); t != nil {
			return t, nil
		}
		return typegraph.Typedef{Name: name[len(name)-1], Underlying: underlying}, nil
	}

	p.pos++
	var value int64
	for !p.accept("}") {
		id, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if p.accept("=") {
			if value, err = p.parseConstant(); err != nil {
				return nil, err
			}
		}
		p.consts[strings.Join(p.qualify([]string{id.Value}), "::")] = value
		value++
		if !p.accept(",") {
			if _, err := p.expect("}"); err != nil {
				return nil, err
			}
			break
		}
	}

	if name == nil {
		return underlying, nil
	}
	typ := typegraph.Typedef{Name: name[len(name)-1], Underlying: underlying}
	p.typedefs[strings.Join(p.qualify(name), "::")] = typ
	return typ, nil
}

// parseConstant evaluates an integer constant expression built from
// literals, enumerators, parentheses and the operators + - * / % << >>.
func (p *Parser) parseConstant() (int64, error) {
	return p.parseShift()
}

func (p *Parser) parseShift() (int64, error) {
	l, err := p.parseAdd()
	if err != nil {
		return 0, err
	}
	for p.is("<<") || p.is(">>") {
		op := p.next().Value
		r, err := p.parseAdd()
		if err != nil {
			return 0, err
		}
		if r < 0 || r > 62 {
			return 0, p.errorf("shift count %d out of range", r)
		}
		if op == "<<" {
			l <<= r
		} else {
			l >>= r
		}
	}
	return l, nil
}

func (p *Parser) parseAdd() (int64, error) {
	l, err := p.parseMul()
	if err != nil {
		return 0, err
	}
	for p.is("+") || p.is("-") {
		op := p.next().Value
		r, err := p.parseMul()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			l += r
		} else {
			l -= r
		}
	}
	return l, nil
}

func (p *Parser) parseMul() (int64, error) {
	l, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for p.is("*") || p.is("/") || p.is("%") {
		op := p.next().Value
		r, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch {
		case op == "*":
			l *= r
		case r == 0:
			return 0, p.errorf("division by zero in constant expression")
		case op == "/":
			l /= r
		default:
			l %= r
		}
	}
	return l, nil
}

func (p *Parser) parseUnary() (int64, error) {
	t := p.next()
	if t == nil {
		return 0, p.errorf("expected constant, got end of input")
	}
	switch t.Type {
	case token.Number:
		v := strings.ReplaceAll(strings.TrimRight(t.Value, "uUlL"), "'", "")
		n, err := strconv.ParseInt(v, 0, 64)
		if err != nil {
			return 0, errors.Syntax(t.Line, "invalid number %q", t.Value)
		}
		return n, nil
	case token.Char:
		s, err := strconv.Unquote("'" + t.Value + "'")
		if err != nil || s == "" {
			return 0, errors.Syntax(t.Line, "invalid character literal '%s'", t.Value)
		}
		return int64([]rune(s)[0]), nil
	case token.Ident:
		for _, key := range p.candidates([]string{t.Value}) {
			if v, ok := p.consts[key]; ok {
				return v, nil
			}
		}
		return 0, errors.Syntax(t.Line, "unknown constant %q", t.Value)
	}
	switch t.Value {
	case "-":
		v, err := p.parseUnary()
		return -v, err
	case "+":
		return p.parseUnary()
	case "~":
		v, err := p.parseUnary()
		return ^v, err
	case "(":
		v, err := p.parseConstant()
		if err != nil {
			return 0, err
		}
		_, err = p.expect(")")
		return v, err
	}
	return 0, errors.Syntax(t.Line, "expected constant, got %q", t.Value)
}
