package ast

import (
	"fmt"
	"strings"
)

// Position represents a position in a source string
type Position struct {
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Offset int    `json:"offset" yaml:"offset"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// String returns a human-readable representation of the position
func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ExtractContext renders the source line holding position with a caret under
// its column. Sources are single line, so only that line is shown.
func ExtractContext(source string, position Position) string {
	lines := strings.Split(source, "\n")
	if position.Line <= 0 || position.Line > len(lines) {
		return ""
	}

	line := lines[position.Line-1]
	var context strings.Builder
	context.WriteString(fmt.Sprintf(">> %4d | %s\n", position.Line, line))
	if position.Column > 0 {
		pointer := strings.Repeat(" ", 10+min(position.Column-1, len(line))) + "^"
		context.WriteString(pointer + "\n")
	}
	return context.String()
}

// NodeKind names a node variant
type NodeKind string

const (
	KindProgram            NodeKind = "Program"
	KindLiteral            NodeKind = "Literal"
	KindIdentifier         NodeKind = "Identifier"
	KindPropertyAccess     NodeKind = "PropertyAccess"
	KindAssignment         NodeKind = "Assignment"
	KindPropertyAssignment NodeKind = "PropertyAssignment"
	KindBinaryOp           NodeKind = "BinaryOp"
	KindLogicalOp          NodeKind = "LogicalOp"
	KindConditional        NodeKind = "Conditional"
	KindGrouping           NodeKind = "Grouping"
)

// Node is implemented by every AST node. The set of implementations is closed.
type Node interface {
	Pos() Position
	Kind() NodeKind
	node()
}

// Program is the root of a parsed source. Body is nil for empty input.
type Program struct {
	Body Node
}

func (n *Program) Pos() Position {
	if n.Body == nil {
		return Position{Line: 1, Column: 1}
	}
	return n.Body.Pos()
}
func (n *Program) Kind() NodeKind { return KindProgram }
func (n *Program) node()          {}

// IsEmpty reports whether the program has no expression
func (n *Program) IsEmpty() bool { return n.Body == nil }

// LiteralKind distinguishes literal payloads
type LiteralKind string

const (
	LiteralNumber LiteralKind = "number"
	LiteralBool   LiteralKind = "bool"
	LiteralString LiteralKind = "string"
)

// Literal holds a number, boolean or string constant
type Literal struct {
	Position Position
	Type     LiteralKind
	Number   int64
	Bool     bool
	Str      string
}

// NumberLit builds a number literal
func NumberLit(pos Position, v int64) *Literal {
	return &Literal{Position: pos, Type: LiteralNumber, Number: v}
}

// BoolLit builds a boolean literal
func BoolLit(pos Position, v bool) *Literal {
	return &Literal{Position: pos, Type: LiteralBool, Bool: v}
}

// StringLit builds a string literal
func StringLit(pos Position, v string) *Literal {
	return &Literal{Position: pos, Type: LiteralString, Str: v}
}

func (n *Literal) Pos() Position  { return n.Position }
func (n *Literal) Kind() NodeKind { return KindLiteral }
func (n *Literal) node()          {}

// GoValue returns the literal payload as a plain Go value
func (n *Literal) GoValue() interface{} {
	switch n.Type {
	case LiteralNumber:
		return n.Number
	case LiteralBool:
		return n.Bool
	default:
		return n.Str
	}
}

// Identifier is a read of a bare name
type Identifier struct {
	Position Position
	Name     string
}

func (n *Identifier) Pos() Position  { return n.Position }
func (n *Identifier) Kind() NodeKind { return KindIdentifier }
func (n *Identifier) node()          {}

// PropertyAccess reads Target.Property
type PropertyAccess struct {
	Position Position
	Target   string
	Property string
}

func (n *PropertyAccess) Pos() Position  { return n.Position }
func (n *PropertyAccess) Kind() NodeKind { return KindPropertyAccess }
func (n *PropertyAccess) node()          {}

// Assignment rebinds an existing name
type Assignment struct {
	Position Position
	Target   string
	Value    Node
}

func (n *Assignment) Pos() Position  { return n.Position }
func (n *Assignment) Kind() NodeKind { return KindAssignment }
func (n *Assignment) node()          {}

// PropertyAssignment writes Target.Property
type PropertyAssignment struct {
	Position Position
	Target   string
	Property string
	Value    Node
}

func (n *PropertyAssignment) Pos() Position  { return n.Position }
func (n *PropertyAssignment) Kind() NodeKind { return KindPropertyAssignment }
func (n *PropertyAssignment) node()          {}

// BinaryOpType is an arithmetic or comparison operator
type BinaryOpType string

const (
	OpAdd BinaryOpType = "+"
	OpSub BinaryOpType = "-"
	OpGt  BinaryOpType = ">"
	OpEq  BinaryOpType = "=="
)

// BinaryOp applies an arithmetic or comparison operator
type BinaryOp struct {
	Position Position
	Op       BinaryOpType
	Left     Node
	Right    Node
}

func (n *BinaryOp) Pos() Position  { return n.Position }
func (n *BinaryOp) Kind() NodeKind { return KindBinaryOp }
func (n *BinaryOp) node()          {}

// LogicalOpType is && or ||
type LogicalOpType string

const (
	OpAnd LogicalOpType = "&&"
	OpOr  LogicalOpType = "||"
)

// LogicalOp combines two operands with && or ||
type LogicalOp struct {
	Position Position
	Op       LogicalOpType
	Left     Node
	Right    Node
}

func (n *LogicalOp) Pos() Position  { return n.Position }
func (n *LogicalOp) Kind() NodeKind { return KindLogicalOp }
func (n *LogicalOp) node()          {}

// Conditional is if (Test) { Then } else { Else }. Else may be nil.
type Conditional struct {
	Position Position
	Test     Node
	Then     Node
	Else     Node
}

func (n *Conditional) Pos() Position  { return n.Position }
func (n *Conditional) Kind() NodeKind { return KindConditional }
func (n *Conditional) node()          {}

// Grouping is a parenthesised or brace-wrapped expression
type Grouping struct {
	Position Position
	Inner    Node
	Brace    bool
}

func (n *Grouping) Pos() Position  { return n.Position }
func (n *Grouping) Kind() NodeKind { return KindGrouping }
func (n *Grouping) node()          {}
