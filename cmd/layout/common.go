package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/report"
)

// profileFlags selects a registered profile or loads one from YAML.
type profileFlags struct {
	name string
	file string
}

func (pf *profileFlags) register(f *flag.FlagSet, def string) {
	f.StringVar(&pf.name, "profile", def, "ABI profile: "+strings.Join(abi.Names(), ", "))
	f.StringVar(&pf.file, "profile-file", "", "YAML profile document (overrides -profile)")
}

func (pf *profileFlags) profile() (*abi.Profile, error) {
	if pf.file != "" {
		return abi.LoadFile(pf.file)
	}
	if pf.name == "" {
		return abi.Default, nil
	}
	return abi.Lookup(pf.name)
}

// colorMode is auto, always or never.
type colorMode string

func (c *colorMode) String() string { return string(*c) }

func (c *colorMode) Set(s string) error {
	switch s {
	case "auto", "always", "never":
		*c = colorMode(s)
		return nil
	}
	return fmt.Errorf("color must be auto, always or never, got %q", s)
}

// styleFor returns report options styling output written to w.
func (c colorMode) styleFor(w io.Writer) []report.Option {
	switch c {
	case "always":
		return []report.Option{report.WithStyle(report.DefaultStyle())}
	case "never":
		return nil
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return []report.Option{report.WithStyle(report.DefaultStyle())}
	}
	return nil
}
