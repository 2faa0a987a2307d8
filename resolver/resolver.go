package resolver

import (
	stderrors "errors"
	"math/bits"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/typegraph"
)

// Resolver lays out aggregates under one profile and caches every result,
// failures included, by aggregate identity.
type Resolver struct {
	profile *abi.Profile
	logger  *zap.Logger
	cache   map[*typegraph.Aggregate]result
	active  map[*typegraph.Aggregate]bool
}

type result struct {
	layout *Layout
	err    error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for resolution tracing.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a resolver for profile p.
func New(p *abi.Profile, opts ...Option) *Resolver {
	r := &Resolver{
		profile: p,
		logger:  Logger(),
		cache:   make(map[*typegraph.Aggregate]result),
		active:  make(map[*typegraph.Aggregate]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Profile returns the profile r resolves under.
func (r *Resolver) Profile() *abi.Profile {
	return r.profile
}

// Resolve returns the layout of a. The same *Layout is returned for every
// call with the same aggregate.
func (r *Resolver) Resolve(a *typegraph.Aggregate) (*Layout, error) {
	if a == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "nil aggregate")
	}
	if res, ok := r.cache[a]; ok {
		r.logger.Debug("cache hit", zap.String("aggregate", a.QualifiedName()))
		return res.layout, res.err
	}
	if r.active[a] {
		return nil, errors.UnsupportedConstruct(a.QualifiedName(), "", "aggregate contains itself by value")
	}
	if !a.Complete {
		err := errors.UnsupportedConstruct(a.QualifiedName(), "", "incomplete type used by value")
		r.cache[a] = result{err: err}
		return nil, err
	}

	r.active[a] = true
	var l *Layout
	var err error
	if a.Kind() == typegraph.Union {
		l, err = r.union(a)
	} else {
		l, err = r.structure(a)
	}
	delete(r.active, a)

	if err != nil {
		l = nil
		r.logger.Warn("aggregate failed",
			zap.String("aggregate", a.QualifiedName()),
			zap.Error(err))
	} else {
		r.logger.Debug("aggregate resolved",
			zap.String("aggregate", a.QualifiedName()),
			zap.Uint32("size", l.Size),
			zap.Uint32("align", l.Align),
			zap.Int("holes", len(l.Holes)))
	}
	r.cache[a] = result{layout: l, err: err}
	return l, err
}

// TypeLayout returns the size and alignment of t as a field type.
func (r *Resolver) TypeLayout(t typegraph.TypeRef) (abi.Layout, error) {
	info, err := r.typeInfo("", "", t)
	if err != nil {
		return abi.Layout{}, err
	}
	return info.Layout, nil
}

// ResolveGraph resolves the roots of g in first-reference order. A failing
// root does not stop the others: the layouts that succeeded are returned
// together with every failure.
func (r *Resolver) ResolveGraph(g *typegraph.Graph) ([]*Layout, error) {
	var (
		layouts []*Layout
		errs    error
	)
	for _, a := range g.Roots() {
		l, err := r.Resolve(a)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		layouts = append(layouts, l)
	}
	return layouts, errs
}

type typeInfo struct {
	abi.Layout
	agg  *Layout
	anon bool
}

// typeInfo computes the layout of t as used by field of owner. Names are
// only used to place errors.
func (r *Resolver) typeInfo(owner, field string, t typegraph.TypeRef) (typeInfo, error) {
	switch v := t.(type) {
	case typegraph.Scalar:
		if v.Kind == abi.Void {
			return typeInfo{}, errors.UnsupportedConstruct(owner, field, "void used by value")
		}
		l, err := r.profile.ScalarLayout(v.Kind)
		if err != nil {
			return typeInfo{}, errors.ProfileMismatch(owner, field, v.Kind.String(), r.profile.Name)
		}
		return typeInfo{Layout: l}, nil

	case typegraph.Pointer:
		return typeInfo{Layout: r.profile.PointerLayout()}, nil

	case typegraph.Array:
		elem, err := r.typeInfo(owner, field, v.Elem)
		if err != nil {
			return typeInfo{}, err
		}
		hi, size := bits.Mul32(elem.Size, v.Len)
		if hi != 0 {
			return typeInfo{}, errors.UnsupportedConstruct(owner, field, "array size overflows")
		}
		elem.Size = size
		return elem, nil

	case typegraph.Typedef:
		if v.Underlying == nil {
			return typeInfo{}, errors.UnresolvedType(owner, field, v.Name)
		}
		return r.typeInfo(owner, field, v.Underlying)

	case typegraph.AggregateRef:
		if v.Agg == nil {
			return typeInfo{}, errors.UnresolvedType(owner, field, "<nil aggregate>")
		}
		l, err := r.Resolve(v.Agg)
		if err != nil {
			return typeInfo{}, nested(err, owner, field)
		}
		return typeInfo{Layout: abi.Layout{Size: l.Size, Align: l.Align}, agg: l, anon: v.Agg.Anonymous()}, nil

	case typegraph.Unresolved:
		return typeInfo{}, errors.UnresolvedType(owner, field, v.Name)

	default:
		return typeInfo{}, errors.UnresolvedType(owner, field, "<nil>")
	}
}

func nested(err error, owner, field string) error {
	if owner == "" {
		return err
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return errors.WithPath(e, owner, field)
	}
	return errors.Wrap(errors.PhaseResolve, errors.KindUnsupportedConstruct, err, owner+"."+field)
}

// place fills the aggregate references of m from info.
func place(m *Member, info typeInfo) {
	if info.agg == nil {
		return
	}
	if info.anon {
		m.Inline = info.agg
		return
	}
	m.Refs = []*Layout{info.agg}
}
