package ast

// NodeDefs describes every node kind the parser can produce. It is filled
// once during package initialisation and never modified afterwards.
var NodeDefs []NodeDef

// NodeDef documents a node kind
type NodeDef struct {
	Kind        NodeKind `json:"kind"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

func init() {
	NodeDefs = []NodeDef{
		{
			Kind:        KindLiteral,
			Description: "Literal value. Integers (42), booleans (true, false) and double-quoted strings without escapes (\"hello\").",
			Examples:    []string{"42", "true", "\"hello\""},
		},
		{
			Kind:        KindIdentifier,
			Description: "Variable read. The name must already exist in the context.",
			Examples:    []string{"a", "counter"},
		},
		{
			Kind:        KindPropertyAccess,
			Description: "Single-level property read 'name.property'. Only valid at the start of an expression; wrap it in parentheses to use it as a right operand.",
			Examples:    []string{"a.x", "a.x - 1", "1 + (a.x)"},
		},
		{
			Kind:        KindAssignment,
			Description: "Rebinds an existing name. Assigning to a name absent from the context is an error.",
			Examples:    []string{"a = 1", "a = a + b"},
		},
		{
			Kind:        KindPropertyAssignment,
			Description: "Sets a property on a name that holds a mapping.",
			Examples:    []string{"a.x = 1", "a.x = a.x - 1"},
		},
		{
			Kind:        KindBinaryOp,
			Description: "Arithmetic (+, -) or comparison (>, ==). All binary and logical operators share one precedence level and associate left to right.",
			Examples:    []string{"a + 1", "a > 3", "a - b == 0"},
		},
		{
			Kind:        KindLogicalOp,
			Description: "Logical && and ||. The result is the operand that decided the outcome.",
			Examples:    []string{"a && true", "a || b"},
		},
		{
			Kind:        KindConditional,
			Description: "if (test) { expression } with an optional else { expression }. Each branch holds exactly one expression.",
			Examples:    []string{"if (a > 3) { a = 0 }", "if (a == \"x\") { a = \"y\" } else { a = \"z\" }"},
		},
		{
			Kind:        KindGrouping,
			Description: "Parentheses or braces around an expression. Has no effect at evaluation time.",
			Examples:    []string{"(a + 1)", "{ a = 1 }"},
		},
	}
}

// LookupDef returns the definition for kind
func LookupDef(kind NodeKind) (NodeDef, bool) {
	for _, def := range NodeDefs {
		if def.Kind == kind {
			return def, true
		}
	}
	return NodeDef{}, false
}
