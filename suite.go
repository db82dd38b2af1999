package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrhapile/wasm-spectest/internal/wasmval"
)

// Command type tags of the command-list format.
const (
	typeModule                    = "module"
	typeAssertReturn              = "assert_return"
	typeAssertReturnCanonicalNaN  = "assert_return_canonical_nan"
	typeAssertReturnArithmeticNaN = "assert_return_arithmetic_nan"
	actionTypeInvoke              = "invoke"
)

const scriptExt = ".wast"

// Command is one entry of a suite: a module declaration or an assertion.
// The set of implementations is closed.
type Command interface {
	CommandLine() int
	isCommand()
}

// ModuleCommand declares the module targeted by subsequent invocations.
type ModuleCommand struct {
	Line     int
	Filename string
}

// AssertReturnCommand expects the action to return Expected (zero or one value).
type AssertReturnCommand struct {
	Line     int
	Action   Action
	Expected []wasmval.TypedValue
}

// AssertNaNCommand expects the action to return a NaN of the given kind.
type AssertNaNCommand struct {
	Line   int
	Kind   wasmval.NaNKind
	Action Action
}

// UnsupportedCommand is any command the harness does not execute.
type UnsupportedCommand struct {
	Line    int
	RawType string
	Raw     json.RawMessage
}

func (c *ModuleCommand) CommandLine() int       { return c.Line }
func (c *AssertReturnCommand) CommandLine() int { return c.Line }
func (c *AssertNaNCommand) CommandLine() int    { return c.Line }
func (c *UnsupportedCommand) CommandLine() int  { return c.Line }

func (*ModuleCommand) isCommand()       {}
func (*AssertReturnCommand) isCommand() {}
func (*AssertNaNCommand) isCommand()    {}
func (*UnsupportedCommand) isCommand()  {}

// ActionKind distinguishes executable invocations from everything else.
type ActionKind int

const (
	ActionOther ActionKind = iota
	ActionInvoke
)

// Action is the operation an assertion performs.
type Action struct {
	Kind    ActionKind
	RawType string
	Module  string
	Field   string
	Args    []wasmval.TypedValue
	Raw     json.RawMessage
}

type rawAction struct {
	Type   string               `json:"type"`
	Module string               `json:"module,omitempty"`
	Field  string               `json:"field"`
	Args   []wasmval.TypedValue `json:"args"`
}

type rawCommand struct {
	Type     string               `json:"type"`
	Line     int                  `json:"line"`
	Filename string               `json:"filename"`
	Action   json.RawMessage      `json:"action"`
	Expected []wasmval.TypedValue `json:"expected"`
}

func decodeAction(raw json.RawMessage) (Action, error) {
	var a rawAction
	if err := json.Unmarshal(raw, &a); err != nil {
		return Action{}, err
	}
	kind := ActionOther
	if a.Type == actionTypeInvoke {
		kind = ActionInvoke
	}
	return Action{Kind: kind, RawType: a.Type, Module: a.Module, Field: a.Field, Args: a.Args, Raw: raw}, nil
}

func decodeCommand(raw json.RawMessage) (Command, error) {
	var c rawCommand
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}

	switch c.Type {
	case typeModule:
		return &ModuleCommand{Line: c.Line, Filename: c.Filename}, nil
	case typeAssertReturn, typeAssertReturnCanonicalNaN, typeAssertReturnArithmeticNaN:
	default:
		return &UnsupportedCommand{Line: c.Line, RawType: c.Type, Raw: raw}, nil
	}

	if len(c.Action) == 0 {
		return nil, fmt.Errorf("line %d: %s without action", c.Line, c.Type)
	}
	action, err := decodeAction(c.Action)
	if err != nil {
		return nil, fmt.Errorf("line %d: action: %w", c.Line, err)
	}

	switch c.Type {
	case typeAssertReturnCanonicalNaN:
		return &AssertNaNCommand{Line: c.Line, Kind: wasmval.NaNCanonical, Action: action}, nil
	case typeAssertReturnArithmeticNaN:
		return &AssertNaNCommand{Line: c.Line, Kind: wasmval.NaNArithmetic, Action: action}, nil
	}
	if len(c.Expected) > 1 {
		// The invocation protocol carries a single result.
		return &UnsupportedCommand{Line: c.Line, RawType: c.Type + " (multi-value)", Raw: raw}, nil
	}
	return &AssertReturnCommand{Line: c.Line, Action: action, Expected: c.Expected}, nil
}

// TestSuite is the decoded command list of one suite.
type TestSuite struct {
	SourceFilename string
	Commands       []Command
}

// UnmarshalJSON decodes {"source_filename": ..., "commands": [...]}.
func (s *TestSuite) UnmarshalJSON(b []byte) error {
	var raw struct {
		SourceFilename string            `json:"source_filename"`
		Commands       []json.RawMessage `json:"commands"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.SourceFilename = raw.SourceFilename
	s.Commands = make([]Command, 0, len(raw.Commands))
	for i, rc := range raw.Commands {
		c, err := decodeCommand(rc)
		if err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		s.Commands = append(s.Commands, c)
	}
	return nil
}

// readSuiteFile reads a command-list artifact. Tests replace it.
var readSuiteFile = os.ReadFile

// SuiteLoader finds suites and their artifacts on disk. Scripts live in
// TestDir as <name>.wast; the compiled command list of a suite and its
// module files live in BuildDir/<name>/.
type SuiteLoader struct {
	TestDir  string
	BuildDir string
}

// ListSuiteNames returns one name per test script, ordered by file name.
func (l SuiteLoader) ListSuiteNames() ([]string, error) {
	entries, err := os.ReadDir(l.TestDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == scriptExt {
			names = append(names, strings.TrimSuffix(entry.Name(), scriptExt))
		}
	}
	return names, nil
}

// ArtifactPath is where the command list of suite name is expected.
func (l SuiteLoader) ArtifactPath(name string) string {
	return filepath.Join(l.BuildDir, name, name+".json")
}

// ModulePath resolves a module filename of suite name.
func (l SuiteLoader) ModulePath(name, filename string) string {
	return filepath.Join(l.BuildDir, name, filename)
}

// LoadCommands reads and decodes the command list of suite name.
func (l SuiteLoader) LoadCommands(name string) (*TestSuite, error) {
	path := l.ArtifactPath(name)
	data, err := readSuiteFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &HarnessError{Kind: KindSuiteNotFound, Suite: name, Message: "no command list at " + path, Cause: err}
	}
	if err != nil {
		return nil, &HarnessError{Kind: KindSuiteUnreadable, Suite: name, Message: "cannot read " + path, Cause: err}
	}

	var suite TestSuite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, &HarnessError{Kind: KindSuiteUnreadable, Suite: name, Message: "cannot decode " + path, Cause: err}
	}
	return &suite, nil
}
