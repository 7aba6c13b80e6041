package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidManifest(t *testing.T) {
	out, _, err := execute(t, "validate", circuitsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Manifest valid (4 functions)")
}

func TestValidateValidManifestJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", circuitsDir)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	data, _ := json.Marshal(resp.Data)
	var result ValidationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.True(t, result.Valid)
	assert.Equal(t, 4, result.Functions)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
}

func TestValidateInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	src := `module: "__main__"

function: broken: {
	params: [{name: "x"}, {name: "x", type: "int"}]
	returns: "int"
	source: """
		def other(x):
		    return x
		"""
	includes: ["nowhere"]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.cue"), []byte(src), 0o644))

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E121") // duplicate param
	assert.Contains(t, out, "E123") // unknown include
	assert.Contains(t, out, "E124") // missing annotation
	assert.Contains(t, out, "E125") // no def broken(
}

func TestValidateInvalidManifestJSON(t *testing.T) {
	dir := t.TempDir()
	src := `function: f: {
	params: [{name: "x", type: "int"}]
	source: "def f(x: int):\n    return x\n"
	includes: ["f"]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "self.cue"), []byte(src), 0o644))

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E126", resp.Error.Code)
}

func TestValidateBadType(t *testing.T) {
	dir := t.TempDir()
	src := `function: f: {
	params: [{name: "x", type: "Array[int]"}]
	source: "def f(x):\n    return x\n"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(src), 0o644))

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E103")
}

func TestValidateIncludeCycleWarning(t *testing.T) {
	dir := t.TempDir()
	src := `function: even: {
	params: [{name: "n", type: "int"}]
	returns: "bool"
	source: "def even(n: int) -> bool:\n    return n == 0 or odd(n - 1)\n"
	includes: ["odd"]
}
function: odd: {
	params: [{name: "n", type: "int"}]
	returns: "bool"
	source: "def odd(n: int) -> bool:\n    return n != 0 and even(n - 1)\n"
	includes: ["even"]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parity.cue"), []byte(src), 0o644))

	out, _, err := execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Manifest valid (2 functions)")
	assert.Contains(t, out, "⚠ include cycle: ")

	out, _, err = execute(t, "--format", "json", "validate", dir)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	data, _ := json.Marshal(resp.Data)
	var result ValidationResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Warnings, 1)
	assert.Len(t, result.Warnings[0].Path, 3)
}
