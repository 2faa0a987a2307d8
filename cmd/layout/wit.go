package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"
	"go.bytecodealliance.org/wit"
	"go.uber.org/multierr"

	"github.com/wippyai/structlayout"
	"github.com/wippyai/structlayout/witgraph"
)

type witCmd struct {
	stdout, stderr io.Writer

	profile profileFlags
	color   colorMode
	verify  bool
}

func newWitCmd(stdout, stderr io.Writer) *witCmd {
	return &witCmd{stdout: stdout, stderr: stderr, color: "auto"}
}

func (*witCmd) Name() string     { return "wit" }
func (*witCmd) Synopsis() string { return "Report the C layout of WIT types from a JSON package." }
func (*witCmd) Usage() string {
	return "layout wit [-profile P] [-verify] file.json\n" +
		"  file.json is the output of wasm-tools component wit --json.\n"
}

func (cmd *witCmd) SetFlags(f *flag.FlagSet) {
	cmd.profile.register(f, "wasm32")
	f.Var(&cmd.color, "color", "Colorize output: auto, always or never")
	f.BoolVar(&cmd.verify, "verify", false, "Compare every type with its canonical ABI layout")
}

func (cmd *witCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(cmd.stderr, cmd.Usage())
		return subcommands.ExitUsageError
	}
	p, err := cmd.profile.profile()
	if err != nil {
		fmt.Fprintf(cmd.stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	res, err := wit.LoadJSON(f.Arg(0))
	if err != nil {
		fmt.Fprintf(cmd.stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	g, err := witgraph.Build(res, witgraph.WithProfile(p))
	if err != nil {
		fmt.Fprintf(cmd.stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := structlayout.Analyze(structlayout.Unit{Name: f.Arg(0), Graph: g, Profile: p})
	if err != nil {
		fmt.Fprintf(cmd.stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprint(cmd.stdout, out.Report(cmd.color.styleFor(cmd.stdout)...))

	status := subcommands.ExitSuccess
	for _, e := range multierr.Errors(out.Err) {
		fmt.Fprintf(cmd.stderr, "Error: %v\n", e)
		status = subcommands.ExitFailure
	}
	if cmd.verify {
		for _, e := range multierr.Errors(witgraph.Verify(res, p)) {
			fmt.Fprintf(cmd.stderr, "verify: %v\n", e)
			status = subcommands.ExitFailure
		}
	}
	return status
}
