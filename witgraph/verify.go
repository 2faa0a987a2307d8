package witgraph

import (
	"go.bytecodealliance.org/wit"
	"go.uber.org/multierr"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/resolver"
	"github.com/wippyai/structlayout/witgraph/internal/canon"
)

// Canonical returns the canonical ABI size and alignment of t.
func Canonical(t wit.Type) abi.Layout {
	return canon.NewCalculator().Layout(t)
}

// Verify resolves every entry of res under p and compares it with the
// canonical ABI layout of its definition. Only a 32-bit profile such as
// wasm32 is expected to agree. Mismatches are joined.
func Verify(res *wit.Resolve, p *abi.Profile) error {
	if p == nil {
		p = abi.Wasm32
	}
	_, entries, err := BuildEntries(res, WithProfile(p))
	if err != nil {
		return err
	}

	r := resolver.New(p)
	calc := canon.NewCalculator()
	var errs error
	for _, e := range entries {
		got, err := r.TypeLayout(e.Type)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		want := calc.Layout(e.Def)
		if got != want {
			errs = multierr.Append(errs, errors.New(errors.PhaseResolve, errors.KindMismatch).
				Path(e.Name).
				Detail("size/align %d/%d, canonical ABI %d/%d", got.Size, got.Align, want.Size, want.Align).
				Build())
		}
	}
	return errs
}
