package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Children returns the direct child nodes of n in source order
func Children(n Node) []Node {
	switch node := n.(type) {
	case *Program:
		if node.Body == nil {
			return nil
		}
		return []Node{node.Body}
	case *Assignment:
		return []Node{node.Value}
	case *PropertyAssignment:
		return []Node{node.Value}
	case *BinaryOp:
		return []Node{node.Left, node.Right}
	case *LogicalOp:
		return []Node{node.Left, node.Right}
	case *Conditional:
		if node.Else == nil {
			return []Node{node.Test, node.Then}
		}
		return []Node{node.Test, node.Then, node.Else}
	case *Grouping:
		return []Node{node.Inner}
	default:
		return nil
	}
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the current node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}

// Unwrap strips any number of Grouping layers
func Unwrap(n Node) Node {
	for {
		g, ok := n.(*Grouping)
		if !ok {
			return n
		}
		n = g.Inner
	}
}

// DumpNode is a serialisable projection of a node used for printing and
// snapshotting parsed trees.
type DumpNode struct {
	// Node variant, e.g. BinaryOp
	Kind NodeKind `json:"kind" yaml:"kind"`
	// line:column of the first token of the node
	Position string `json:"position,omitempty" yaml:"position,omitempty"`
	// Operator for BinaryOp and LogicalOp, "()" or "{}" for Grouping
	Op string `json:"op,omitempty" yaml:"op,omitempty"`
	// Variable name for Identifier, PropertyAccess and both assignment kinds
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Property name for PropertyAccess and PropertyAssignment
	Property string `json:"property,omitempty" yaml:"property,omitempty"`
	// Literal payload
	Value interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	// Child nodes in source order
	Children []*DumpNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Dump projects n into a DumpNode tree
func Dump(n Node) *DumpNode {
	if n == nil {
		return nil
	}

	d := &DumpNode{Kind: n.Kind()}
	if _, isProgram := n.(*Program); !isProgram {
		d.Position = n.Pos().String()
	}

	switch node := n.(type) {
	case *Literal:
		d.Value = node.GoValue()
	case *Identifier:
		d.Name = node.Name
	case *PropertyAccess:
		d.Name = node.Target
		d.Property = node.Property
	case *Assignment:
		d.Name = node.Target
	case *PropertyAssignment:
		d.Name = node.Target
		d.Property = node.Property
	case *BinaryOp:
		d.Op = string(node.Op)
	case *LogicalOp:
		d.Op = string(node.Op)
	case *Grouping:
		if node.Brace {
			d.Op = "{}"
		} else {
			d.Op = "()"
		}
	}

	for _, child := range Children(n) {
		d.Children = append(d.Children, Dump(child))
	}
	return d
}

// Tree renders n as an indented outline, one node per line
func Tree(n Node) string {
	var b strings.Builder
	writeTree(&b, Dump(n), 0)
	return b.String()
}

func writeTree(b *strings.Builder, d *DumpNode, depth int) {
	if d == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(string(d.Kind))

	var attrs []string
	if d.Op != "" {
		attrs = append(attrs, d.Op)
	}
	if d.Name != "" {
		name := d.Name
		if d.Property != "" {
			name += "." + d.Property
		}
		attrs = append(attrs, name)
	}
	if d.Value != nil {
		if s, ok := d.Value.(string); ok {
			attrs = append(attrs, strconv.Quote(s))
		} else {
			attrs = append(attrs, fmt.Sprintf("%v", d.Value))
		}
	}
	if len(attrs) > 0 {
		b.WriteString(" " + strings.Join(attrs, " "))
	}
	if d.Position != "" {
		b.WriteString(" @" + d.Position)
	}
	b.WriteString("\n")

	for _, child := range d.Children {
		writeTree(b, child, depth+1)
	}
}

// Format prints n back as source text. Parsing the result yields an
// equivalent tree.
func Format(n Node) string {
	switch node := n.(type) {
	case nil:
		return ""
	case *Program:
		return Format(node.Body)
	case *Literal:
		switch node.Type {
		case LiteralNumber:
			return strconv.FormatInt(node.Number, 10)
		case LiteralBool:
			return strconv.FormatBool(node.Bool)
		default:
			return `"` + node.Str + `"`
		}
	case *Identifier:
		return node.Name
	case *PropertyAccess:
		return node.Target + "." + node.Property
	case *Assignment:
		return node.Target + " = " + Format(node.Value)
	case *PropertyAssignment:
		return node.Target + "." + node.Property + " = " + Format(node.Value)
	case *BinaryOp:
		return Format(node.Left) + " " + string(node.Op) + " " + Format(node.Right)
	case *LogicalOp:
		return Format(node.Left) + " " + string(node.Op) + " " + Format(node.Right)
	case *Conditional:
		s := "if (" + Format(node.Test) + ") { " + Format(node.Then) + " }"
		if node.Else != nil {
			s += " else { " + Format(node.Else) + " }"
		}
		return s
	case *Grouping:
		if node.Brace {
			return "{ " + Format(node.Inner) + " }"
		}
		return "(" + Format(node.Inner) + ")"
	default:
		return ""
	}
}
