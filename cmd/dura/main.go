// Package main is dura's command-line entrypoint: verb dispatch for the
// background capture daemon and its sibling one-shot commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/dura/pkg/config"
	"github.com/umputun/dura/pkg/pathenv"
)

// opts holds all command-line options.
type opts struct {
	ConfigDir string `long:"config-dir" env:"DURA_CONFIG_HOME" description:"override the config/runtime directory"`
	Version   bool   `short:"v" long:"version" description:"print version and exit"`
	NoColor   bool   `long:"no-color" description:"disable colored output"`

	Positional struct {
		Verb string   `positional-arg-name:"verb" description:"serve|watch|unwatch|kill|capture|status|list, or any dura-<verb> on PATH"`
		Args []string `positional-arg-name:"args"`
	} `positional-args:"yes"`
}

var revision = "unknown"

// resolveVersion returns the best available version string.
// priority: ldflags revision → module version from go install → VCS commit hash → "unknown".
func resolveVersion() string {
	if revision != "unknown" {
		return revision
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return revision
	}
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return revision
}

func main() {
	var o opts
	parser := flags.NewParser(&o, flags.Default)
	parser.Usage = "[OPTIONS] <verb> [args...]"

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		fmt.Printf("dura %s\n", resolveVersion())
		return
	}
	if o.NoColor {
		color.NoColor = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		fmt.Fprintln(os.Stderr, "dura:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts) error {
	dir := o.ConfigDir
	if dir == "" {
		resolved, err := pathenv.ConfigDir()
		if err != nil {
			return err
		}
		dir = resolved
	}
	store := config.NewAt(dir)

	switch o.Positional.Verb {
	case "":
		return errors.New("no verb given; try --help")
	case "serve":
		return runServe(ctx, store, dir)
	case "watch":
		return runWatch(store, o.Positional.Args)
	case "unwatch":
		return runUnwatch(store, o.Positional.Args)
	case "kill":
		return runKill(dir)
	case "capture":
		return runCaptureOnce(store, o.Positional.Args)
	case "status":
		return runStatus(dir)
	case "list":
		return runList(store)
	default:
		return runExternalVerb(ctx, o.Positional.Verb, o.Positional.Args)
	}
}
