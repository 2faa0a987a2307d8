package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/fixture"
)

const manifestName = "profiles.yaml"

type checkCmd struct {
	stdout, stderr io.Writer

	manifest string
	profile  string
	verbose  bool
}

func newCheckCmd(stdout, stderr io.Writer) *checkCmd {
	return &checkCmd{stdout: stdout, stderr: stderr}
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "Compare fixtures with their expected layout reports." }
func (*checkCmd) Usage() string {
	return "layout check [-manifest M] [-profile P] paths...\n" +
		"  Directories are walked for .c, .cpp and .md fixtures. A directory's\n" +
		"  " + manifestName + " selects profiles unless -manifest or -profile is given.\n"
}

func (cmd *checkCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.manifest, "manifest", "", "Profile manifest (YAML)")
	f.StringVar(&cmd.profile, "profile", "", "Check every case under this profile only")
	f.BoolVar(&cmd.verbose, "verbose", false, "Print passing cases too")
}

func (cmd *checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(cmd.stderr, cmd.Usage())
		return subcommands.ExitUsageError
	}

	var forced *abi.Profile
	if cmd.profile != "" {
		p, err := abi.Lookup(cmd.profile)
		if err != nil {
			fmt.Fprintf(cmd.stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		forced = p
	}

	var results []fixture.Result
	for _, path := range f.Args() {
		cases, m, err := cmd.load(path)
		if err != nil {
			fmt.Fprintf(cmd.stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		pick := m.ProfilesFor
		if forced != nil {
			pick = func(*fixture.Case) ([]*abi.Profile, error) { return []*abi.Profile{forced}, nil }
		}
		rs, err := fixture.CheckAll(ctx, cases, pick)
		if err != nil {
			fmt.Fprintf(cmd.stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		results = append(results, rs...)
	}

	for _, r := range results {
		switch {
		case !r.OK():
			fmt.Fprintf(cmd.stdout, "FAIL %s [%s]\n", r.Case.Name, r.Profile.Name)
			if r.Diff != "" {
				fmt.Fprintln(cmd.stdout, r.Diff)
			} else {
				fmt.Fprintf(cmd.stdout, "  %v\n", r.Err)
			}
		case cmd.verbose:
			fmt.Fprintf(cmd.stdout, "ok   %s [%s]\n", r.Case.Name, r.Profile.Name)
		}
	}
	fmt.Fprintln(cmd.stdout, fixture.Summary(results))

	for _, r := range results {
		if !r.OK() {
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// load returns the cases under path and the manifest that applies to them.
func (cmd *checkCmd) load(path string) ([]*fixture.Case, *fixture.Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}

	manifestPath := cmd.manifest
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	if manifestPath == "" {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			manifestPath = candidate
		}
	}
	var m *fixture.Manifest
	if manifestPath != "" {
		if m, err = fixture.LoadManifest(manifestPath); err != nil {
			return nil, nil, err
		}
	}

	var cases []*fixture.Case
	switch {
	case info.IsDir():
		cases, err = fixture.LoadDir(path)
	case filepath.Ext(path) == ".md":
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			cases, err = fixture.ParseMarkdown(filepath.Base(path), string(data))
		}
	default:
		var c *fixture.Case
		if c, err = fixture.LoadFile(path); err == nil {
			cases = []*fixture.Case{c}
		}
	}
	if err != nil {
		return nil, nil, err
	}

	// Manifest keys are relative to the manifest's directory.
	if manifestPath != "" {
		if rel, err := filepath.Rel(filepath.Dir(manifestPath), dir); err == nil && rel != "." {
			for _, c := range cases {
				c.Name = filepath.ToSlash(rel) + "/" + c.Name
			}
		}
	}
	return cases, m, nil
}
