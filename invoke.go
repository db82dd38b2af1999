package main

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/mrhapile/wasm-spectest/internal/wasmval"
)

// Protocol flags of the interpreter under test.
const (
	flagModule   = "-p"
	flagFunction = "-f"
	flagArg      = "-a"
)

const timeoutMessage = "invocation timed out"

// waitDelay bounds how long Wait lingers for output pipes after the process
// has been killed, e.g. when a grandchild still holds them open.
const waitDelay = 100 * time.Millisecond

// OutcomeKind classifies how an invocation ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	}
	return "unknown"
}

// Outcome is the normalized result of one invocation. Result is the trimmed
// stdout on success; Message is the trimmed stderr on failure.
type Outcome struct {
	Kind    OutcomeKind
	Result  string
	Message string
	Argv    []string
}

// Invocation targets one exported function of one module.
type Invocation struct {
	ModulePath string
	Function   string
	Args       []wasmval.TypedValue
}

// Invoker executes invocations against an interpreter.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) Outcome
}

// BuildArgv constructs the argument vector:
//
//	<binary> -p <module_path> -f <function_name> [-a <type:value>]*
//
// The order is part of the protocol.
func BuildArgv(binary string, inv Invocation) []string {
	argv := make([]string, 0, 5+2*len(inv.Args))
	argv = append(argv, binary, flagModule, inv.ModulePath, flagFunction, inv.Function)
	for _, arg := range inv.Args {
		argv = append(argv, flagArg, wasmval.Encode(arg))
	}
	return argv
}

// newCommand creates the interpreter process. Tests replace it.
var newCommand = exec.CommandContext

// ProcessInvoker runs the interpreter binary once per invocation.
type ProcessInvoker struct {
	Binary  string
	Timeout time.Duration
}

// Invoke implements Invoker. A process still running when Timeout expires is
// killed and reported as OutcomeTimeout. There are no retries.
func (p *ProcessInvoker) Invoke(ctx context.Context, inv Invocation) Outcome {
	argv := BuildArgv(p.Binary, inv)

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := newCommand(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Outcome{Kind: OutcomeTimeout, Message: timeoutMessage, Argv: argv}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Outcome{Kind: OutcomeFailure, Message: trimOutput(stderr.String()), Argv: argv}
		}
		return Outcome{Kind: OutcomeFailure, Message: err.Error(), Argv: argv}
	}
	return Outcome{Kind: OutcomeSuccess, Result: trimOutput(stdout.String()), Argv: argv}
}

func trimOutput(s string) string {
	return strings.TrimRight(s, "\r\n\t ")
}

// FormatCall renders an invocation as field(type:value, ...).
func FormatCall(field string, args []wasmval.TypedValue) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = wasmval.Encode(arg)
	}
	return field + "(" + strings.Join(parts, ", ") + ")"
}
