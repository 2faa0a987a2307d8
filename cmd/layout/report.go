package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/multierr"

	"github.com/wippyai/structlayout"
)

type reportCmd struct {
	stdout, stderr io.Writer

	profile profileFlags
	color   colorMode
}

func newReportCmd(stdout, stderr io.Writer) *reportCmd {
	return &reportCmd{stdout: stdout, stderr: stderr, color: "auto"}
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "Print the layout of aggregates passed by value." }
func (*reportCmd) Usage() string {
	return "layout report [-profile P] [-profile-file F] [-color auto|always|never] files...\n"
}

func (cmd *reportCmd) SetFlags(f *flag.FlagSet) {
	cmd.profile.register(f, "reference")
	f.Var(&cmd.color, "color", "Colorize output: auto, always or never")
}

func (cmd *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(cmd.stderr, cmd.Usage())
		return subcommands.ExitUsageError
	}
	p, err := cmd.profile.profile()
	if err != nil {
		fmt.Fprintf(cmd.stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	units := make([]structlayout.Unit, 0, f.NArg())
	for _, path := range f.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(cmd.stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		units = append(units, structlayout.Unit{Name: path, Source: string(src), Profile: p})
	}

	results, err := structlayout.AnalyzeAll(ctx, units)
	status := subcommands.ExitSuccess
	for _, e := range multierr.Errors(err) {
		fmt.Fprintf(cmd.stderr, "Error: %v\n", e)
		status = subcommands.ExitFailure
	}

	opts := cmd.color.styleFor(cmd.stdout)
	for _, res := range results {
		if res == nil {
			continue
		}
		if len(results) > 1 {
			fmt.Fprintf(cmd.stdout, "// %s\n", res.Name)
		}
		fmt.Fprint(cmd.stdout, res.Report(opts...))
		for _, e := range multierr.Errors(res.Err) {
			fmt.Fprintf(cmd.stderr, "%s: %v\n", res.Name, e)
			status = subcommands.ExitFailure
		}
	}
	return status
}
