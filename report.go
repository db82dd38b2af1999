package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const (
	colorGreen  = "\033[92m"
	colorYellow = "\033[93m"
	colorRed    = "\033[91m"
	colorReset  = "\033[0m"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Reporter renders results as human-readable lines.
type Reporter struct {
	mu            sync.Mutex
	w             io.Writer
	color         bool
	hideSuccesses bool
}

// NewReporter writes to w. Successful commands are not printed when
// hideSuccesses is set; failures and skips always are.
func NewReporter(w io.Writer, color, hideSuccesses bool) *Reporter {
	return &Reporter{w: w, color: color, hideSuccesses: hideSuccesses}
}

// useColor resolves a color mode for the given output.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Reporter) prefix(status Status) string {
	var tag, color string
	switch status {
	case StatusOK:
		tag, color = " OK ", colorGreen
	case StatusSkip:
		tag, color = "WARN", colorYellow
	default:
		tag, color = "FAIL", colorRed
	}
	if !r.color {
		return "[" + tag + "]"
	}
	return "[" + color + tag + colorReset + "]"
}

// Result prints one command result.
func (r *Reporter) Result(res CommandResult) {
	if res.Status == StatusOK && r.hideSuccesses {
		return
	}

	var line string
	switch {
	case res.Status == StatusSkip:
		line = res.Reason
	case res.Reason != "":
		line = res.Call + ": " + res.Reason
	default:
		line = fmt.Sprintf("%s: expected=%s, actual=%s. Command: \"%s\"",
			res.Call, res.Expected, res.Actual, strings.Join(res.Command, " "))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s %s: %s\n", r.prefix(res.Status), res.Location, line)
}

// SuiteError prints an error that stopped a suite from being replayed.
func (r *Reporter) SuiteError(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s suite %s: %v\n", r.prefix(StatusFail), name, err)
}

// Summary prints the aggregate counters. Plain output keeps bare integers so
// scripts can parse it; on a colored terminal they get thousands separators.
func (r *Reporter) Summary(c Counts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "Found %s tests\n", r.count(c.Total))
	fmt.Fprintf(r.w, "\tSkipped: %s\n", r.count(c.Skipped))
	fmt.Fprintf(r.w, "\tFailed: %s\n", r.count(c.Failed))
	fmt.Fprintf(r.w, "\tSuccessful: %s\n", r.count(c.Successful))
}

func (r *Reporter) count(n int) string {
	if r.color {
		return humanize.Comma(int64(n))
	}
	return strconv.Itoa(n)
}

// outputJSON writes the report as formatted JSON.
func outputJSON(w io.Writer, report *RunReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
