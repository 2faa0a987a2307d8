// Command layout resolves and reports the memory layout of C and C++
// aggregates.
//
//	layout report [-profile P] [-profile-file F] [-color auto|always|never] files...
//	layout check [-manifest M] [-profile P] paths...
//	layout browse [-profile P] file
//	layout profiles [-yaml name]
//	layout wit [-profile P] [-verify] file.json
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/structlayout"
	"github.com/wippyai/structlayout/fixture"
	"github.com/wippyai/structlayout/resolver"
)

func main() {
	verbose := flag.Bool("v", false, "Log resolution details to stderr")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(newReportCmd(os.Stdout, os.Stderr), "")
	subcommands.Register(newCheckCmd(os.Stdout, os.Stderr), "")
	subcommands.Register(newBrowseCmd(), "")
	subcommands.Register(newProfilesCmd(os.Stdout), "")
	subcommands.Register(newWitCmd(os.Stdout, os.Stderr), "")

	flag.Parse()

	log := newLogger(*verbose)
	defer log.Sync()
	structlayout.SetLogger(log)
	resolver.SetLogger(log.Named("resolver"))
	fixture.SetLogger(log.Named("fixture"))

	os.Exit(int(subcommands.Execute(context.Background())))
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			return l
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
