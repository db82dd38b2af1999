package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrhapile/wasm-spectest/internal/wasmval"
)

func TestTestSuite_UnmarshalJSON(t *testing.T) {
	raw := `{
  "source_filename": "f32.wast",
  "commands": [
    {"type": "module", "line": 3, "filename": "f32.0.wasm"},
    {"type": "assert_return", "line": 19, "action": {"type": "invoke", "field": "add", "args": [{"type": "f32", "value": "2147483648"}, {"type": "f32", "value": "0"}]}, "expected": [{"type": "f32", "value": "0"}]},
    {"type": "assert_return_canonical_nan", "line": 20, "action": {"type": "invoke", "field": "sqrt", "args": [{"type": "f32", "value": "3212836864"}]}, "expected": [{"type": "f32"}]},
    {"type": "assert_return_arithmetic_nan", "line": 21, "action": {"type": "invoke", "module": "$M", "field": "add", "args": []}, "expected": [{"type": "f32"}]},
    {"type": "assert_return", "line": 22, "action": {"type": "get", "field": "g"}, "expected": [{"type": "i32", "value": "1"}]},
    {"type": "assert_malformed", "line": 23, "filename": "f32.1.wat", "text": "unknown operator", "module_type": "text"}
  ]
}`

	var suite TestSuite
	require.NoError(t, json.Unmarshal([]byte(raw), &suite))

	f32 := func(v string) wasmval.TypedValue { return wasmval.TypedValue{Type: wasmval.TypeF32, Value: v} }
	want := []Command{
		&ModuleCommand{Line: 3, Filename: "f32.0.wasm"},
		&AssertReturnCommand{
			Line:     19,
			Action:   Action{Kind: ActionInvoke, RawType: "invoke", Field: "add", Args: []wasmval.TypedValue{f32("2147483648"), f32("0")}},
			Expected: []wasmval.TypedValue{f32("0")},
		},
		&AssertNaNCommand{
			Line:   20,
			Kind:   wasmval.NaNCanonical,
			Action: Action{Kind: ActionInvoke, RawType: "invoke", Field: "sqrt", Args: []wasmval.TypedValue{f32("3212836864")}},
		},
		&AssertNaNCommand{
			Line:   21,
			Kind:   wasmval.NaNArithmetic,
			Action: Action{Kind: ActionInvoke, RawType: "invoke", Module: "$M", Field: "add", Args: []wasmval.TypedValue{}},
		},
		&AssertReturnCommand{
			Line:     22,
			Action:   Action{Kind: ActionOther, RawType: "get", Field: "g"},
			Expected: []wasmval.TypedValue{{Type: wasmval.TypeI32, Value: "1"}},
		},
		&UnsupportedCommand{Line: 23, RawType: "assert_malformed"},
	}

	assert.Equal(t, "f32.wast", suite.SourceFilename)
	ignoreRaw := cmpopts.IgnoreTypes(json.RawMessage{})
	if diff := cmp.Diff(want, suite.Commands, ignoreRaw); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeCommand_MultiValueIsUnsupported(t *testing.T) {
	raw := `{"type": "assert_return", "line": 5, "action": {"type": "invoke", "field": "pair", "args": []}, "expected": [{"type": "i32", "value": "1"}, {"type": "i32", "value": "2"}]}`

	command, err := decodeCommand(json.RawMessage(raw))
	require.NoError(t, err)

	unsupported, ok := command.(*UnsupportedCommand)
	require.True(t, ok, "got %T", command)
	assert.Equal(t, 5, unsupported.CommandLine())
	assert.Equal(t, "assert_return (multi-value)", unsupported.RawType)
}

func TestDecodeCommand_AssertionWithoutAction(t *testing.T) {
	_, err := decodeCommand(json.RawMessage(`{"type": "assert_return", "line": 7, "expected": []}`))
	assert.Error(t, err)
}

func TestSuiteLoader_ListSuiteNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"i64.wast", "f32.wast", "README.md", "address.wast"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "build.wast"), 0o755))

	names, err := SuiteLoader{TestDir: dir}.ListSuiteNames()

	require.NoError(t, err)
	assert.Equal(t, []string{"address", "f32", "i64"}, names, "stems of scripts, sorted, directories ignored")
}

func TestSuiteLoader_ListSuiteNames_MissingDir(t *testing.T) {
	_, err := SuiteLoader{TestDir: filepath.Join(t.TempDir(), "missing")}.ListSuiteNames()
	assert.Error(t, err)
}

func TestSuiteLoader_LoadCommands(t *testing.T) {
	root := t.TempDir()
	writeSuite(t, root, "mixed", mixedSuite)
	loader := SuiteLoader{TestDir: filepath.Join(root, "test"), BuildDir: filepath.Join(root, "build")}

	suite, err := loader.LoadCommands("mixed")
	require.NoError(t, err)
	assert.Equal(t, "mixed.wast", suite.SourceFilename)
	assert.Len(t, suite.Commands, 6)
	assert.Equal(t, filepath.Join(root, "build", "mixed", "mixed.0.wasm"), loader.ModulePath("mixed", "mixed.0.wasm"))
}

func TestSuiteLoader_LoadCommands_Errors(t *testing.T) {
	root := t.TempDir()
	writeSuite(t, root, "broken", `{"source_filename": "broken.wast", "commands": [`)
	loader := SuiteLoader{TestDir: filepath.Join(root, "test"), BuildDir: filepath.Join(root, "build")}

	t.Run("not_found", func(t *testing.T) {
		_, err := loader.LoadCommands("absent")
		assert.ErrorIs(t, err, ErrSuiteNotFound)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("undecodable", func(t *testing.T) {
		_, err := loader.LoadCommands("broken")
		var herr *HarnessError
		require.True(t, errors.As(err, &herr))
		assert.Equal(t, KindSuiteUnreadable, herr.Kind)
		assert.NotErrorIs(t, err, ErrSuiteNotFound)
	})

	t.Run("read_fault", func(t *testing.T) {
		patches := gomonkey.ApplyGlobalVar(&readSuiteFile, func(string) ([]byte, error) {
			return nil, fs.ErrPermission
		})
		defer patches.Reset()

		_, err := loader.LoadCommands("broken")
		var herr *HarnessError
		require.True(t, errors.As(err, &herr))
		assert.Equal(t, KindSuiteUnreadable, herr.Kind)
		assert.Equal(t, "broken", herr.Suite)
		assert.ErrorIs(t, err, fs.ErrPermission)
	})
}
