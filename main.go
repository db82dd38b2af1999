// Command wasm-spectest replays compiled WebAssembly conformance suites
// against an interpreter binary and reports pass, fail and skip per command.
//
//	wasm-spectest [run] [flags] [suite,suite,...]
//	wasm-spectest list [flags]
//	wasm-spectest fetch [-url URL] [-rev REV] [-dir DIR]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// writeError reports a fatal error as a JSON object on stderr.
func writeError(stderr io.Writer, msg string, err error) int {
	errorResult := map[string]string{"error": msg}
	if err != nil {
		errorResult["details"] = err.Error()
	}
	_ = json.NewEncoder(stderr).Encode(errorResult)
	return 1
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	sub := "run"
	if len(args) > 0 {
		switch args[0] {
		case "run", "list", "fetch":
			sub, args = args[0], args[1:]
		}
	}

	switch sub {
	case "list":
		return runList(args, stdout, stderr)
	case "fetch":
		return runFetch(ctx, args, stdout, stderr)
	default:
		return runSuites(ctx, args, stdout, stderr)
	}
}

// harnessFlags binds the flags shared by run and list. Flags only override
// the config file when given explicitly.
type harnessFlags struct {
	fs         *flag.FlagSet
	configPath string
	overrides  Config
	skip       string
	showOK     bool
	jsonOut    bool
}

func newHarnessFlags(name string, stderr io.Writer) *harnessFlags {
	h := &harnessFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	fs := h.fs
	fs.SetOutput(stderr)
	def := DefaultConfig()

	fs.StringVar(&h.configPath, "config", DefaultConfigPath, "YAML configuration file")
	fs.StringVar(&h.overrides.Binary, "binary", def.Binary, "interpreter binary under test")
	fs.StringVar(&h.overrides.TestDir, "test-dir", def.TestDir, "directory of .wast test scripts")
	fs.StringVar(&h.overrides.BuildDir, "build-dir", def.BuildDir, "directory of compiled suites")
	fs.DurationVar(&h.overrides.Timeout, "timeout", def.Timeout, "wall-clock budget of one invocation")
	fs.StringVar(&h.skip, "skip", strings.Join(def.SkipSuites, ","), "comma-separated suites to skip")
	fs.BoolVar(&h.showOK, "show-successes", !def.HideSuccesses, "print successful commands too")
	fs.StringVar(&h.overrides.Color, "color", def.Color, "auto, always or never")
	fs.IntVar(&h.overrides.Jobs, "jobs", def.Jobs, "suites replayed concurrently")
	fs.BoolVar(&h.overrides.Strict, "strict", def.Strict, "exit 1 when any command failed")
	fs.StringVar((*string)(&h.overrides.NaNMode), "nan-mode", string(def.NaNMode), "strict or loose NaN assertions")
	fs.BoolVar(&h.jsonOut, "json", false, "print the report as JSON instead of lines")
	return h
}

// config loads the file and applies explicitly set flags on top.
func (h *harnessFlags) config() (Config, error) {
	explicit := false
	h.fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	cfg, err := LoadConfig(h.configPath, explicit)
	if err != nil {
		return cfg, err
	}

	h.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "binary":
			cfg.Binary = h.overrides.Binary
		case "test-dir":
			cfg.TestDir = h.overrides.TestDir
		case "build-dir":
			cfg.BuildDir = h.overrides.BuildDir
		case "timeout":
			cfg.Timeout = h.overrides.Timeout
		case "skip":
			cfg.SkipSuites = splitList(h.skip)
		case "show-successes":
			cfg.HideSuccesses = !h.showOK
		case "color":
			cfg.Color = h.overrides.Color
		case "jobs":
			cfg.Jobs = h.overrides.Jobs
		case "strict":
			cfg.Strict = h.overrides.Strict
		case "nan-mode":
			cfg.NaNMode = h.overrides.NaNMode
		}
	})
	return cfg, cfg.Validate()
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runSuites(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	h := newHarnessFlags("wasm-spectest", stderr)
	if err := h.fs.Parse(args); err != nil {
		return 2
	}
	if h.fs.NArg() > 1 {
		return writeError(stderr, "usage: wasm-spectest [flags] [suite,suite,...]", nil)
	}
	cfg, err := h.config()
	if err != nil {
		return writeError(stderr, "invalid configuration", err)
	}

	var filter []string
	if h.fs.NArg() == 1 {
		filter = splitList(h.fs.Arg(0))
	}

	lines := stdout
	if h.jsonOut {
		lines = io.Discard
	}
	reporter := NewReporter(lines, useColor(cfg.Color, stdout), cfg.HideSuccesses)

	runner := &Runner{
		Loader:      SuiteLoader{TestDir: cfg.TestDir, BuildDir: cfg.BuildDir},
		Invoker:     &ProcessInvoker{Binary: cfg.Binary, Timeout: cfg.Timeout},
		Adjudicator: Adjudicator{NaNMode: cfg.NaNMode},
		Reporter:    reporter,
		SkipSuites:  cfg.skipSet(),
		Jobs:        cfg.Jobs,
	}

	report, err := runner.Run(ctx, filter)
	if err != nil {
		return writeError(stderr, "run failed", err)
	}

	if h.jsonOut {
		if err := outputJSON(stdout, report); err != nil {
			fmt.Fprintf(stderr, "failed to encode JSON output: %v\n", err)
			return 1
		}
	} else {
		reporter.Summary(report.Counts)
	}

	if cfg.Strict && report.Failed > 0 {
		return 1
	}
	return 0
}

func runList(args []string, stdout, stderr io.Writer) int {
	h := newHarnessFlags("wasm-spectest list", stderr)
	if err := h.fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := h.config()
	if err != nil {
		return writeError(stderr, "invalid configuration", err)
	}

	names, err := SuiteLoader{TestDir: cfg.TestDir, BuildDir: cfg.BuildDir}.ListSuiteNames()
	if err != nil {
		return writeError(stderr, "list failed", err)
	}
	skip := cfg.skipSet()
	for _, name := range names {
		if skip[name] {
			fmt.Fprintf(stdout, "%s (skipped)\n", name)
			continue
		}
		fmt.Fprintln(stdout, name)
	}
	return 0
}

func runFetch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wasm-spectest fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	url := fs.String("url", DefaultTestsuiteURL, "repository of the test scripts")
	rev := fs.String("rev", "", "revision to check out, default branch head when empty")
	dir := fs.String("dir", DefaultConfig().TestDir, "destination directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	commit, err := fetchTestsuite(ctx, *dir, *url, *rev)
	if err != nil {
		return writeError(stderr, "fetch failed", err)
	}
	fmt.Fprintf(stdout, "fetched %s at %s into %s\n", *url, commit, *dir)
	return 0
}
