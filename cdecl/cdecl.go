// Package cdecl reads C and C++ declarations into a type graph.
//
// It understands the declaration subset that decides aggregate layout:
// struct, union and class definitions (named, anonymous, nested and
// forward declared), namespaces, typedefs, enums, scalar spellings,
// pointers, arrays and bitfields. Preprocessor lines are ignored, so
// fixed-width names such as uint32_t are bound through the profile.
// Every function prototype or definition becomes an entry point whose
// by-value parameters select the aggregates to report; bodies are skipped.
package cdecl

import (
	stderrors "errors"
	"os"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/cdecl/internal/parser"
	"github.com/wippyai/structlayout/cdecl/internal/token"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/typegraph"
)

// Parse builds the type graph of src. Fixed-width typedef names are
// resolved against p.
func Parse(src string, p *abi.Profile) (*typegraph.Graph, error) {
	tokens := token.Tokenize(src)
	return parser.New(tokens, p).Parse()
}

// ParseFile reads and parses the file at path.
func ParseFile(path string, p *abi.Profile) (*typegraph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindNotFound, err, "read "+path)
	}
	g, err := Parse(string(data), p)
	if err != nil {
		kind := errors.KindSyntax
		var e *errors.Error
		if stderrors.As(err, &e) {
			kind = e.Kind
		}
		return nil, errors.Wrap(errors.PhaseParse, kind, err, path)
	}
	return g, nil
}
