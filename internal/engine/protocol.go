package engine

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/mrhapile/wasm-spectest/internal/wasmval"
)

// Exit codes of a reference runner.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Request is one parsed invocation.
type Request struct {
	ModulePath string
	Function   string
	Args       []wasmval.TypedValue
}

// argList collects repeated -a flags in order.
type argList []wasmval.TypedValue

func (a *argList) String() string {
	parts := make([]string, len(*a))
	for i, v := range *a {
		parts[i] = wasmval.Encode(v)
	}
	return strings.Join(parts, ",")
}

func (a *argList) Set(s string) error {
	v, err := wasmval.Decode(s)
	if err != nil {
		return err
	}
	*a = append(*a, v)
	return nil
}

// ParseRequest parses the protocol arguments, excluding the program name.
func ParseRequest(name string, args []string, stderr io.Writer) (Request, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var req Request
	var values argList
	fs.StringVar(&req.ModulePath, "p", "", "path of the module to load")
	fs.StringVar(&req.Function, "f", "", "name of the exported function to invoke")
	fs.Var(&values, "a", "argument as type:value, repeatable")

	if err := fs.Parse(args); err != nil {
		return Request{}, err
	}
	if fs.NArg() > 0 {
		return Request{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if req.ModulePath == "" || req.Function == "" {
		return Request{}, errors.New("both -p and -f are required")
	}
	req.Args = values
	return req, nil
}

// Invoke runs one request against runtime and never panics: failures are
// returned as a *RuntimeError carrying the stage that failed.
func Invoke(runtime Runtime, req Request) (results []wasmval.TypedValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = &RuntimeError{Stage: StageExecute, Message: fmt.Sprintf("panic recovered: %v", r)}
		}
	}()

	module, err := runtime.LoadModule(req.ModulePath)
	if err != nil {
		var runtimeErr *RuntimeError
		if errors.As(err, &runtimeErr) {
			return nil, runtimeErr
		}
		return nil, &RuntimeError{Stage: StageLoad, Message: "load failed", Cause: err}
	}
	defer module.Close()

	results, err = module.Execute(req.Function, req.Args...)
	if err != nil {
		var runtimeErr *RuntimeError
		if errors.As(err, &runtimeErr) {
			return nil, runtimeErr
		}
		return nil, &RuntimeError{Stage: StageExecute, Message: "execution failed", Cause: err}
	}
	return results, nil
}

// FormatResults renders results as the protocol's stdout payload.
func FormatResults(results []wasmval.TypedValue) (string, error) {
	switch len(results) {
	case 0:
		return wasmval.Void, nil
	case 1:
		return wasmval.Encode(results[0]), nil
	}
	return "", &RuntimeError{Stage: StageExecute, Message: fmt.Sprintf("%d results, the protocol carries at most one", len(results))}
}

// Serve implements a runner's main: it parses args, invokes once and writes
// the result to stdout or the error to stderr. It returns the exit code.
func Serve(name string, runtime Runtime, args []string, stdout, stderr io.Writer) int {
	req, err := ParseRequest(name, args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "%s: %v\n", StageArgs, err)
		}
		return ExitUsage
	}

	results, err := Invoke(runtime, req)
	if err == nil {
		var out string
		if out, err = FormatResults(results); err == nil {
			fmt.Fprintln(stdout, out)
			return ExitOK
		}
	}
	fmt.Fprintln(stderr, err)
	return ExitFailure
}
