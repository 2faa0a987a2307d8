package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/wippyai/structlayout/abi"
)

type profilesCmd struct {
	stdout io.Writer

	dump string
}

func newProfilesCmd(stdout io.Writer) *profilesCmd {
	return &profilesCmd{stdout: stdout}
}

func (*profilesCmd) Name() string     { return "profiles" }
func (*profilesCmd) Synopsis() string { return "List ABI profiles or print one as YAML." }
func (*profilesCmd) Usage() string    { return "layout profiles [-yaml name]\n" }

func (cmd *profilesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.dump, "yaml", "", "Print the named profile as a YAML document")
}

func (cmd *profilesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if cmd.dump != "" {
		p, err := abi.Lookup(cmd.dump)
		if err == nil {
			err = abi.Encode(cmd.stdout, p)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	tw := tabwriter.NewWriter(cmd.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPOINTER\tLONG\tORDER\tHOLES")
	for _, name := range abi.Names() {
		p, err := abi.Lookup(name)
		if err != nil {
			continue
		}
		long, _ := p.ScalarLayout(abi.Long)
		fmt.Fprintf(tw, "%s\t%d/%d\t%d/%d\t%s\t%s\n",
			p.Name, p.Pointer.Size, p.Pointer.Align, long.Size, long.Align, p.Order, p.Surface)
	}
	if err := tw.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
