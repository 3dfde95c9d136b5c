// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Command gfxbench runs a particle benchmark test.
//
// The test is described by a JSON descriptor, and the
// result is written as JSON to standard output or to a
// file. An optional TOML file configures the host:
//
//	[output]
//	result = "result.json"
//	screenshots = "shots"
//	state = "state"
//
//	[logging]
//	level = "debug"
//	format = "json"
//
//	[interactive]
//	enabled = true
//	status_interval = 250
//
//	[engine]
//	driver = "null"
//	prerendered = 2
//	max_prerendered = 3
//	constant_budget = 16384
//	normalized_score = false
//
//	[descriptor]
//	play_time = 5000
//	env = { offscreen = true }
//
// Command line flags take precedence over the file.
// SIGINT and SIGTERM cancel the run, in which case the
// result has the CANCELLED status.
//
// The exit status is 0 if the test passes, 1 if it
// fails, 2 on usage or configuration errors and 3 if the
// run is cancelled.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gviegas/gfxbench/bench"
	_ "github.com/gviegas/gfxbench/driver/null"
	"github.com/gviegas/gfxbench/result"
	"github.com/gviegas/gfxbench/scene"
	"github.com/gviegas/gfxbench/wsi"
)

// Exit codes.
const (
	exitOK = iota
	exitFailed
	exitUsage
	exitCancelled
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// newScreen creates the screen of interactive runs.
var newScreen = tcell.NewScreen

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gfxbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		descPath    = fs.String("descriptor", "", "test descriptor `file` (JSON), or - for standard input")
		cfgPath     = fs.String("config", "", "host configuration `file` (TOML)")
		out         = fs.String("out", "", "result `file`, or - for standard output")
		verbose     = fs.Bool("v", false, "log debug messages")
		interactive = fs.Bool("interactive", false, "show progress and forward input from the terminal")
		shots       = fs.String("screenshots", "", "screenshot `directory`")
		state       = fs.String("state", "", "particle state `directory`")
		drvName     = fs.String("driver", "", "driver `name`")
		normalized  = fs.Bool("normalized", false, "compute a normalized score")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *descPath == "" || fs.NArg() > 0 {
		fmt.Fprintln(stderr, "usage: gfxbench -descriptor file [flags]")
		fs.PrintDefaults()
		return exitUsage
	}

	cfg := DefaultConfig()
	if *cfgPath != "" {
		if err := loadConfig(*cfgPath, &cfg); err != nil {
			fmt.Fprintln(stderr, "gfxbench:", err)
			return exitUsage
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.Output.Result = *out
		case "screenshots":
			cfg.Output.Screenshots = *shots
		case "state":
			cfg.Output.State = *state
		case "interactive":
			cfg.Interactive.Enabled = *interactive
		case "driver":
			cfg.Engine.Driver = *drvName
		case "normalized":
			cfg.Engine.Normalized = *normalized
		}
	})

	logger, err := cfg.Logging.newLogger(stderr, *verbose)
	if err != nil {
		fmt.Fprintln(stderr, "gfxbench:", err)
		return exitUsage
	}
	bench.SetLogger(logger)

	desc, err := readDescriptor(*descPath, stdin)
	if err == nil {
		desc, err = overrideDescriptor(desc, cfg.Descriptor)
	}
	if err != nil {
		logger.Error("descriptor not read", "file", *descPath, "err", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := runTest(ctx, &cfg, desc)
	if err != nil {
		logger.Error("run failed", "err", err)
	}
	if res == nil {
		return exitFailed
	}
	if err := writeResult(cfg.Output.Result, stdout, res); err != nil {
		logger.Error("result not written", "file", cfg.Output.Result, "err", err)
		return exitFailed
	}
	switch res.Result().Status {
	case result.OK:
		return exitOK
	case result.Cancelled:
		return exitCancelled
	}
	return exitFailed
}

// runTest runs the particle test described by desc.
// The result is non-nil even if the run fails.
func runTest(ctx context.Context, cfg *Config, desc []byte) (*result.Group, error) {
	test := scene.NewParticleTest()
	if cfg.Engine.Prerendered > 0 {
		test.Prerendered = cfg.Engine.Prerendered
	}
	opts := bench.Options{
		DriverName:      cfg.Engine.Driver,
		Queue:           &wsi.Queue{},
		ScreenshotDir:   cfg.Output.Screenshots,
		StateDir:        cfg.Output.State,
		NormalizedScore: cfg.Engine.Normalized,
		Engine:          cfg.Engine.engineConfig(),
	}

	var ui *terminal
	var r *bench.Runner
	if cfg.Interactive.Enabled {
		screen, err := newScreen()
		if err == nil {
			ui, err = newTerminal(screen, opts.Queue, cfg.Interactive.interval())
		}
		if err != nil {
			return nil, fmt.Errorf("interactive mode: %w", err)
		}
		r = bench.NewRunner(interactiveTest{test, ui}, opts)
	} else {
		r = bench.NewRunner(test, opts)
	}

	var g errgroup.Group
	if ui != nil {
		g.Go(ui.poll)
	}
	var runErr error
	g.Go(func() error {
		// Graphics contexts are current to a thread.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer func() {
			r.Close()
			if ui != nil {
				ui.close()
			}
		}()
		if runErr = r.Init(ctx, desc); runErr == nil {
			runErr = r.Run(ctx)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r.Result(), runErr
}

func readDescriptor(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func writeResult(name string, stdout io.Writer, res *result.Group) (err error) {
	if name == "" || name == "-" {
		return res.Encode(stdout)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return res.Encode(f)
}
