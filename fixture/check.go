package fixture

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/structlayout"
	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/errors"
)

// Result is the outcome of checking one case under one profile.
type Result struct {
	Case    *Case
	Profile *abi.Profile
	Got     string
	// Diff is a cmp.Diff of expected versus rendered lines, empty on match.
	Diff string
	Err  error
}

// OK reports whether the case rendered exactly as expected.
func (r Result) OK() bool {
	return r.Err == nil
}

// Check renders c under p and compares it with the expected report.
func Check(c *Case, p *abi.Profile) Result {
	r := Result{Case: c, Profile: p}

	res, err := structlayout.Analyze(structlayout.Unit{Name: c.Name, Source: c.Source, Profile: p})
	if err != nil {
		r.Err = err
		return r
	}
	if res.Err != nil {
		r.Err = res.Err
		return r
	}

	r.Got = res.Report()
	if r.Got == c.Expected {
		return r
	}
	r.Diff = cmp.Diff(reportLines(c.Expected), reportLines(r.Got))
	r.Err = errors.New(errors.PhaseFixture, errors.KindMismatch).
		Path(c.Name).
		Detail("layout differs under profile %s (-want +got):\n%s", p.Name, r.Diff).
		Build()
	return r
}

// PickFunc chooses the profiles a case is checked under.
type PickFunc func(*Case) ([]*abi.Profile, error)

// CheckAll checks every case under every profile pick returns for it, in
// parallel. Results keep case order, then profile order. The error is
// non-nil only when pick fails or ctx is cancelled.
func CheckAll(ctx context.Context, cases []*Case, pick PickFunc) ([]Result, error) {
	type job struct {
		c *Case
		p *abi.Profile
	}
	var jobs []job
	for _, c := range cases {
		ps, err := pick(c)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			jobs = append(jobs, job{c, p})
		}
	}

	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Check(j.c, j.p)
			if !results[i].OK() {
				Logger().Debug("fixture failed",
					zap.String("case", j.c.Name),
					zap.String("profile", j.p.Name))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary counts passing and failing results.
func Summary(results []Result) string {
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	return fmt.Sprintf("%d passed, %d failed", len(results)-failed, failed)
}

func reportLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
