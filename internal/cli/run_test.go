package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Counter(t *testing.T) {
	newSingleDirectoryRunTest(t)
}

func Test_ConditionalUpdate(t *testing.T) {
	newSingleDirectoryRunTest(t)
}

func Test_StringCompare(t *testing.T) {
	newSingleDirectoryRunTest(t)
}

func Test_LogicalOperators(t *testing.T) {
	newSingleDirectoryRunTest(t)
}

func Test_JsonContext(t *testing.T) {
	newSingleDirectoryRunTest(t)
}

func Test_Diff(t *testing.T) {
	newSingleDirectoryRunTest(t, "--diff")
}

func Test_JsonOutput(t *testing.T) {
	newSingleDirectoryRunTest(t, "--output", "json")
}

// newSingleDirectoryRunTest runs testdata/run/<test name>/program.js against
// context.yaml and compares the output with golden.txt
func newSingleDirectoryRunTest(t *testing.T, extraArgs ...string) {
	t.Helper()

	directory := testDirectory("run")
	args := append([]string{
		"run", filepath.Join(directory, "program.js"),
		"--context", filepath.Join(directory, "context.yaml"),
	}, extraArgs...)

	res := executeCommand(t, nil, args...)
	require.NoError(t, res.err, res.stderr)
	assertGoldenFile(t, directory, res)
}

func TestRun_Expr(t *testing.T) {
	res := executeCommand(t, nil, "run", "-e", "a = a + 1", "--set", "a=1")

	require.NoError(t, res.err)
	assert.Equal(t, "a = 2\n", res.stdout)
	assert.Empty(t, res.stderr)
}

func TestRun_LargeInteger(t *testing.T) {
	res := executeCommand(t, nil, "run", "-e", "a = a + 1", "--set", "a=1152921504606846976")

	require.NoError(t, res.err)
	assert.Equal(t, "a = 1152921504606846977\n", res.stdout)
}

func TestRun_Stdin(t *testing.T) {
	res := executeCommand(t, strings.NewReader("b.x = 3\n"), "run", "-", "--set", "b.x=0", "--set", "s=hi")

	require.NoError(t, res.err)
	assert.Equal(t, "b.x = 3\ns = \"hi\"\n", res.stdout)
}

func TestRun_EmptyProgramPrintsContext(t *testing.T) {
	res := executeCommand(t, nil, "run", "-", "--set", "a=true", "--set", `s="3"`)

	require.NoError(t, res.err)
	assert.Equal(t, "a = true\ns = \"3\"\n", res.stdout)
}

func TestRun_YAMLOutput(t *testing.T) {
	res := executeCommand(t, nil, "run", "-e", "b.x = 1", "--set", "b.x=0", "--output", "yaml")

	require.NoError(t, res.err)
	assert.Equal(t, "b:\n  x: 1\n", res.stdout)
}

func TestRun_ContextFileIsNotModified(t *testing.T) {
	dir := t.TempDir()
	contextFile := writeFile(t, dir, "context.json", `{"a": 1}`)

	res := executeCommand(t, nil, "run", "-e", "a = 5", "-c", contextFile, "--output", "json")
	require.NoError(t, res.err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, float64(5), out["a"])

	res = executeCommand(t, nil, "run", "-e", "a", "-c", contextFile)
	require.NoError(t, res.err)
	assert.Equal(t, "a = 1\n", res.stdout)
}

func TestRun_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		stderr   []string
		errorMsg string
	}{
		{
			name:   "undefined name",
			args:   []string{"-e", "a = zz", "--set", "a=1"},
			stderr: []string{"UndefinedNameError", "at 1:5", "undefined name zz", "a = zz", "^"},
		},
		{
			name:   "property access after an operator",
			args:   []string{"-e", "1 + a.x", "--set", "a.x=1"},
			stderr: []string{"SyntaxError", "at 1:6", "wrap it in parentheses"},
		},
		{
			name:   "unknown character",
			args:   []string{"-e", "a = 1 * 2", "--set", "a=1"},
			stderr: []string{"LexError", "at 1:7"},
		},
		{
			name:   "type error",
			args:   []string{"-e", `a = a + "x"`, "--set", "a=1"},
			stderr: []string{"TypeError", "unsupported operand types for +: number and string"},
		},
		{
			name:     "set without value",
			args:     []string{"-e", "a", "--set", "novalue"},
			errorMsg: "expected name=value",
		},
		{
			name:     "set property of a scalar",
			args:     []string{"-e", "a", "--set", "a=1", "--set", "a.x=2"},
			errorMsg: "a is not a mapping",
		},
		{
			name:     "diff with json output",
			args:     []string{"-e", "a = 2", "--set", "a=1", "--diff", "--output", "json"},
			errorMsg: "--diff needs text output",
		},
		{
			name:     "diff with yaml output",
			args:     []string{"-e", "a = 2", "--set", "a=1", "--diff", "--output", "yaml"},
			errorMsg: "--diff needs text output, got --output yaml",
		},
		{
			name:     "missing context file",
			args:     []string{"-e", "a", "-c", "does-not-exist.yaml"},
			errorMsg: "failed to read context",
		},
		{
			name:     "missing program file",
			args:     []string{"does-not-exist.js"},
			errorMsg: "failed to read program",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := executeCommand(t, nil, append([]string{"run"}, tc.args...)...)

			require.Error(t, res.err)
			assert.Empty(t, res.stdout)

			if tc.errorMsg != "" {
				assert.Contains(t, res.err.Error(), tc.errorMsg)
				return
			}

			assert.ErrorIs(t, res.err, errFailed)
			for _, want := range tc.stderr {
				assert.Contains(t, res.stderr, want)
			}
		})
	}
}

func TestRun_ErrorNamesFile(t *testing.T) {
	dir := t.TempDir()
	program := writeFile(t, dir, "broken.js", "a = (b\n")

	res := executeCommand(t, nil, "run", program, "--set", "a=1", "--set", "b=2")

	require.ErrorIs(t, res.err, errFailed)
	assert.Contains(t, res.stderr, program+":1:7")
	assert.Contains(t, res.stderr, "expected ')' but found end of input")
}

func TestRun_Session(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "sessions", "minijs.db")

	res := executeCommand(t, nil, "run", "-e", "n = n + 1", "--session", "counter", "--store", storePath, "--set", "n=0")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "n = 1\n", res.stdout)

	res = executeCommand(t, nil, "run", "-e", "n = n + 1", "--session", "counter", "--store", storePath)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "n = 2\n", res.stdout)

	res = executeCommand(t, nil, "run", "-e", "n = missing", "--session", "counter", "--store", storePath)
	require.ErrorIs(t, res.err, errFailed)
	assert.Contains(t, res.stderr, "UndefinedNameError")

	res = executeCommand(t, nil, "run", "-e", "n", "--session", "counter", "--store", storePath, "--diff")
	require.NoError(t, res.err)
	assert.Equal(t, "  n = 2\n", res.stdout)
}

func TestApplySets(t *testing.T) {
	vars := map[string]interface{}{"b": map[string]interface{}{"y": 1}}

	err := applySets(vars, []string{"a=3", "b.x=true", "c.z=hello", "d=", "e=1.5"})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"a": 3,
		"b": map[string]interface{}{"x": true, "y": 1},
		"c": map[string]interface{}{"z": "hello"},
		"d": "",
		"e": 1.5,
	}, vars)
}

func TestFormatContext(t *testing.T) {
	vars := map[string]interface{}{
		"s":     "x",
		"n":     2,
		"f":     0.5,
		"empty": map[string]interface{}{},
		"m":     map[string]interface{}{"b": false, "a": "y"},
	}

	expected := "empty = {}\n" +
		"f = 0.5\n" +
		"m.a = \"y\"\n" +
		"m.b = false\n" +
		"n = 2\n" +
		"s = \"x\"\n"
	assert.Equal(t, expected, formatContext(vars))
}
