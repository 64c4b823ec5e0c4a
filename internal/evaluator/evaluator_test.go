package evaluator

import (
	"errors"
	"testing"

	"github.com/lacquerai/minijs/internal/ast"
	"github.com/lacquerai/minijs/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string, ctx Context) (Context, error) {
	t.Helper()
	program, err := parser.Parse(source)
	require.NoError(t, err)
	return Run(program, ctx)
}

func eval(t *testing.T, source string, ctx Context) Value {
	t.Helper()
	program, err := parser.Parse(source)
	require.NoError(t, err)
	val, err := Evaluate(program, ctx)
	require.NoError(t, err)
	return val
}

func TestRun(t *testing.T) {
	testCases := []struct {
		name     string
		source   string
		ctx      Context
		expected Context
	}{
		{
			name:     "add",
			source:   "a = a + 1",
			ctx:      Context{"a": 1},
			expected: Context{"a": 2},
		},
		{
			name:     "subtract below zero",
			source:   "a = a - 5",
			ctx:      Context{"a": 3},
			expected: Context{"a": -2},
		},
		{
			name:     "right side evaluated as a whole",
			source:   "a = 1 + 2 - 4",
			ctx:      Context{"a": 0},
			expected: Context{"a": -1},
		},
		{
			name:     "chained assignment",
			source:   "a = b = 7",
			ctx:      Context{"a": 0, "b": 0},
			expected: Context{"a": 7, "b": 7},
		},
		{
			name:     "float context values",
			source:   "a = a + 1",
			ctx:      Context{"a": 1.5},
			expected: Context{"a": 2.5},
		},
		{
			name:     "int64 context values come back as int",
			source:   "a = a + 1",
			ctx:      Context{"a": int64(41)},
			expected: Context{"a": 42},
		},
		{
			name:     "boolean result",
			source:   "a = a > 3",
			ctx:      Context{"a": 5},
			expected: Context{"a": true},
		},
		{
			name:     "string assignment",
			source:   `a = "hello"`,
			ctx:      Context{"a": 1},
			expected: Context{"a": "hello"},
		},
		{
			name:     "if taken",
			source:   "if (a>3) { a = 0}",
			ctx:      Context{"a": 5},
			expected: Context{"a": 0},
		},
		{
			name:     "if not taken",
			source:   "if (a>3) { a = 0}",
			ctx:      Context{"a": 2},
			expected: Context{"a": 2},
		},
		{
			name:     "else taken",
			source:   "if (a>3) { a = 0} else { a = 1}",
			ctx:      Context{"a": 2},
			expected: Context{"a": 1},
		},
		{
			name:     "nested if",
			source:   "if (b == 1){ if (a > 3) { a = 0}}",
			ctx:      Context{"a": 5, "b": 1},
			expected: Context{"a": 0, "b": 1},
		},
		{
			name:     "and with flat precedence",
			source:   "if (a>3 && b == 1) { a = 0}",
			ctx:      Context{"a": 5, "b": 1},
			expected: Context{"a": 0, "b": 1},
		},
		{
			name:     "and with flat precedence false",
			source:   "if (a>3 && b == 1) { a = 0}",
			ctx:      Context{"a": 5, "b": 2},
			expected: Context{"a": 5, "b": 2},
		},
		{
			name:     "or with flat precedence",
			source:   "if (a>3 || b == 1) { a = 0}",
			ctx:      Context{"a": 2, "b": 1},
			expected: Context{"a": 0, "b": 1},
		},
		{
			name:     "or with flat precedence false",
			source:   "if (a>3 || b == 1) { a = 0}",
			ctx:      Context{"a": 2, "b": 2},
			expected: Context{"a": 2, "b": 2},
		},
		{
			name:     "string equality",
			source:   `if (a == "x") { a = "y"}`,
			ctx:      Context{"a": "x"},
			expected: Context{"a": "y"},
		},
		{
			name:     "string inequality",
			source:   `if (a == "x") { a = "y"} else { a = "z" }`,
			ctx:      Context{"a": "w"},
			expected: Context{"a": "z"},
		},
		{
			name:     "property read",
			source:   "b = a.x + 1",
			ctx:      Context{"a": map[string]interface{}{"x": 1}, "b": 0},
			expected: Context{"a": map[string]interface{}{"x": 1}, "b": 2},
		},
		{
			name:     "property write",
			source:   "a.x = a.x - 1",
			ctx:      Context{"a": map[string]interface{}{"x": 1}},
			expected: Context{"a": map[string]interface{}{"x": 0}},
		},
		{
			name:     "property write adds a key",
			source:   "a.y = 2",
			ctx:      Context{"a": map[string]interface{}{"x": 1}},
			expected: Context{"a": map[string]interface{}{"x": 1, "y": 2}},
		},
		{
			name:     "property read in parentheses",
			source:   "b = 1 + (a.x)",
			ctx:      Context{"a": map[string]interface{}{"x": 4}, "b": 0},
			expected: Context{"a": map[string]interface{}{"x": 4}, "b": 5},
		},
		{
			name:     "conditional assigned",
			source:   "a = if (a > 1) { 10 } else { 20 }",
			ctx:      Context{"a": 2},
			expected: Context{"a": 10},
		},
		{
			name:     "booleans add as numbers",
			source:   "a = true + true",
			ctx:      Context{"a": 0},
			expected: Context{"a": 2},
		},
		{
			name:     "map assignment copies",
			source:   "b = a",
			ctx:      Context{"a": map[string]interface{}{"x": 1}, "b": 0},
			expected: Context{"a": map[string]interface{}{"x": 1}, "b": map[string]interface{}{"x": 1}},
		},
		{
			name:     "expression without assignment leaves context",
			source:   "a + 1",
			ctx:      Context{"a": 1},
			expected: Context{"a": 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, tc.source, tc.ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestRun_DoesNotModifyInput(t *testing.T) {
	nested := map[string]interface{}{"x": 1}
	ctx := Context{"a": 1, "b": nested}

	out, err := run(t, "if (a == 1) { b.x = a = 5 }", ctx)
	require.NoError(t, err)

	assert.Equal(t, Context{"a": 5, "b": map[string]interface{}{"x": 5}}, out)
	assert.Equal(t, 1, ctx["a"])
	assert.Equal(t, 1, nested["x"])
}

func TestRun_MapAssignmentDoesNotAlias(t *testing.T) {
	out, err := run(t, "b = a", Context{"a": map[string]interface{}{"x": 1}, "b": 0})
	require.NoError(t, err)

	out["a"].(map[string]interface{})["x"] = 99
	assert.Equal(t, 1, out["b"].(map[string]interface{})["x"])
}

func TestRun_EmptyProgram(t *testing.T) {
	ctx := Context{"a": 1}

	out, err := Run(&ast.Program{}, ctx)
	require.NoError(t, err)
	assert.Equal(t, ctx, out)

	out, err = Run(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, ctx, out)

	out, err = Run(&ast.Program{}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun_Idempotent(t *testing.T) {
	program, err := parser.Parse("if (a > 1) { a = a - 1 } else { a = 10 }")
	require.NoError(t, err)

	ctx := Context{"a": 5}
	first, err := Run(program, ctx)
	require.NoError(t, err)
	second, err := Run(program, ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 4, first["a"])
}

func TestRun_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		source   string
		ctx      Context
		target   interface{}
		errorMsg string
	}{
		{
			name:     "assign to new name",
			source:   "a = 1",
			ctx:      Context{},
			target:   new(*UndefinedNameError),
			errorMsg: "cannot assign to undeclared name a",
		},
		{
			name:     "read of unknown name",
			source:   "a = b",
			ctx:      Context{"a": 1},
			target:   new(*UndefinedNameError),
			errorMsg: "undefined name b",
		},
		{
			name:     "unknown name in condition",
			source:   "if (c) { a = 1 }",
			ctx:      Context{"a": 0},
			target:   new(*UndefinedNameError),
			errorMsg: "undefined name c",
		},
		{
			name:     "missing property",
			source:   "b = a.y",
			ctx:      Context{"a": map[string]interface{}{"x": 1}, "b": 0},
			target:   new(*UndefinedPropertyError),
			errorMsg: "a.y: property is not defined",
		},
		{
			name:     "property of undefined name",
			source:   "b = q.x",
			ctx:      Context{"b": 0},
			target:   new(*UndefinedPropertyError),
			errorMsg: "q is not defined",
		},
		{
			name:     "property of a number",
			source:   "a.x = 1",
			ctx:      Context{"a": 3},
			target:   new(*UndefinedPropertyError),
			errorMsg: "a is not a mapping",
		},
		{
			name:     "add string and number",
			source:   `a = a + "x"`,
			ctx:      Context{"a": 1},
			target:   new(*TypeError),
			errorMsg: "unsupported operand types for +: number and string",
		},
		{
			name:     "add two strings",
			source:   `a = a + "x"`,
			ctx:      Context{"a": "y"},
			target:   new(*TypeError),
			errorMsg: "unsupported operand types for +: string and string",
		},
		{
			name:     "compare string and number",
			source:   `a = a > 1`,
			ctx:      Context{"a": "y"},
			target:   new(*TypeError),
			errorMsg: "unsupported operand types for >: string and number",
		},
		{
			name:     "subtract from a map",
			source:   "b = a - 1",
			ctx:      Context{"a": map[string]interface{}{}, "b": 0},
			target:   new(*TypeError),
			errorMsg: "map and number",
		},
		{
			name:     "assign missing else",
			source:   "a = if (false) { 1 }",
			ctx:      Context{"a": 0},
			target:   new(*TypeError),
			errorMsg: "expression produced no value",
		},
		{
			name:     "unsupported context value",
			source:   "a = b",
			ctx:      Context{"a": 0, "b": []int{1}},
			target:   new(*TypeError),
			errorMsg: "unsupported value of type []int",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, tc.source, tc.ctx)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.As(err, tc.target), "unexpected error type %T", err)
			assert.Contains(t, err.Error(), tc.errorMsg)
		})
	}
}

func TestRun_ErrorPositions(t *testing.T) {
	_, err := run(t, "if (a > 1) { a = a + zz }", Context{"a": 2})
	require.Error(t, err)

	var nameErr *UndefinedNameError
	require.True(t, errors.As(err, &nameErr))
	assert.Equal(t, "zz", nameErr.Name)
	assert.Equal(t, 22, nameErr.Pos().Column)
	assert.False(t, nameErr.Write)
}

func TestRun_FailedRunLeavesNoPartialWrites(t *testing.T) {
	ctx := Context{"a": 1, "b": 2}
	_, err := run(t, `a = b = b + "x"`, ctx)
	require.Error(t, err)
	assert.Equal(t, Context{"a": 1, "b": 2}, ctx)
}

func TestEvaluate_Values(t *testing.T) {
	ctx := Context{"a": 3, "s": "abc", "m": map[string]interface{}{"k": true}}

	testCases := []struct {
		source   string
		expected Value
	}{
		{source: "a + 2", expected: IntNumber(5)},
		{source: "a - 5", expected: IntNumber(-2)},
		{source: "a > 2", expected: BoolValue{Val: true}},
		{source: "a == 3", expected: BoolValue{Val: true}},
		{source: `a == "3"`, expected: BoolValue{Val: false}},
		{source: "true == 1", expected: BoolValue{Val: true}},
		{source: `s > "abb"`, expected: BoolValue{Val: true}},
		{source: `s == "abc"`, expected: BoolValue{Val: true}},
		{source: "0 && a", expected: IntNumber(0)},
		{source: "a && s", expected: StringValue{Val: "abc"}},
		{source: `"" || a`, expected: IntNumber(3)},
		{source: "a || false", expected: IntNumber(3)},
		{source: "m.k", expected: BoolValue{Val: true}},
		{source: "(m.k) == true", expected: BoolValue{Val: true}},
		{source: "if (false) { 1 }", expected: NilValue{}},
		{source: "if (a) { 1 } else { 2 }", expected: IntNumber(1)},
		{source: "{ a } + (1)", expected: IntNumber(4)},
		{source: "m", expected: MapValue{Vals: map[string]Value{"k": BoolValue{Val: true}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			assert.Equal(t, tc.expected, eval(t, tc.source, ctx))
		})
	}
}

func TestLogicalOperators_EvaluateBothSides(t *testing.T) {
	ctx := Context{"a": 0, "b": 0}
	eval(t, "(a = 1) || (b = 1)", ctx)
	assert.Equal(t, 1, ctx["a"])
	assert.Equal(t, 1, ctx["b"])
}

func TestEvaluate_NilNode(t *testing.T) {
	_, err := Evaluate(nil, Context{})
	assert.Error(t, err)
}
