package structlayout

import (
	"context"
	stderrors "errors"
	"runtime"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/cdecl"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/report"
	"github.com/wippyai/structlayout/resolver"
	"github.com/wippyai/structlayout/typegraph"
)

// Unit is one compilation unit to analyze.
type Unit struct {
	// Graph is used as is when set; otherwise Source is parsed as C/C++.
	Graph   *typegraph.Graph
	Profile *abi.Profile
	Name    string
	Source  string
}

// Result is the analysis of one unit.
type Result struct {
	Graph   *typegraph.Graph
	Profile *abi.Profile
	// Err joins the per-aggregate failures. Layouts holds the roots that
	// resolved, in first-reference order.
	Err     error
	Name    string
	Layouts []*resolver.Layout
}

// Report renders the resolved layouts under the unit's profile.
func (r *Result) Report(opts ...report.Option) string {
	var b strings.Builder
	_ = report.Render(&b, r.Layouts, r.Profile, opts...)
	return b.String()
}

// Analyze parses and resolves u. The returned error is set only when the
// unit could not be turned into a type graph; aggregate failures are kept
// in Result.Err.
func Analyze(u Unit, opts ...resolver.Option) (*Result, error) {
	p := u.Profile
	if p == nil {
		p = abi.Default
	}

	g := u.Graph
	if g == nil {
		var err error
		if g, err = cdecl.Parse(u.Source, p); err != nil {
			return nil, unitError(u.Name, err)
		}
	}

	layouts, err := resolver.New(p, opts...).ResolveGraph(g)
	Logger().Debug("unit analyzed",
		zap.String("unit", u.Name),
		zap.String("profile", p.Name),
		zap.Int("layouts", len(layouts)),
		zap.Int("failed", len(multierr.Errors(err))))

	return &Result{
		Name:    u.Name,
		Profile: p,
		Graph:   g,
		Layouts: layouts,
		Err:     err,
	}, nil
}

// AnalyzeAll analyzes units concurrently, each with its own resolver.
// Results are in unit order; a unit that failed to parse has a nil entry
// and its error is joined into the returned error. Cancelling ctx stops
// units that have not started.
func AnalyzeAll(ctx context.Context, units []Unit, opts ...resolver.Option) ([]*Result, error) {
	results := make([]*Result, len(units))
	errs := make([]error, len(units))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, u := range units {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = Analyze(u, opts...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, multierr.Combine(errs...)
}

func unitError(name string, err error) error {
	if name == "" {
		return err
	}
	phase, kind := errors.PhaseParse, errors.KindSyntax
	var e *errors.Error
	if stderrors.As(err, &e) {
		phase, kind = e.Phase, e.Kind
	}
	return errors.New(phase, kind).Path(name).Cause(err).Detail("unit failed").Build()
}
