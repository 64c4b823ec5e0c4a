package evaluator

import (
	"fmt"

	"github.com/lacquerai/minijs/internal/ast"
)

// UndefinedNameError is returned when a read or an assignment targets a
// name the context does not hold
type UndefinedNameError struct {
	Name     string       `json:"name"`
	Position ast.Position `json:"position"`
	Write    bool         `json:"write"`
}

func (e *UndefinedNameError) Error() string {
	if e.Write {
		return fmt.Sprintf("runtime error at %s: cannot assign to undeclared name %s", e.Position.String(), e.Name)
	}
	return fmt.Sprintf("runtime error at %s: undefined name %s", e.Position.String(), e.Name)
}

func (e *UndefinedNameError) Pos() ast.Position { return e.Position }

// UndefinedPropertyError is returned when a property read or write cannot be
// resolved: the target is not a mapping, or on reads the key is missing
type UndefinedPropertyError struct {
	Target   string       `json:"target"`
	Property string       `json:"property"`
	Position ast.Position `json:"position"`
	Reason   string       `json:"reason"`
}

func (e *UndefinedPropertyError) Error() string {
	return fmt.Sprintf("runtime error at %s: %s.%s: %s", e.Position.String(), e.Target, e.Property, e.Reason)
}

func (e *UndefinedPropertyError) Pos() ast.Position { return e.Position }

// TypeError is returned when an operator is applied to values of
// incompatible kinds
type TypeError struct {
	Op       string       `json:"op"`
	Left     ValueType    `json:"left,omitempty"`
	Right    ValueType    `json:"right,omitempty"`
	Position ast.Position `json:"position"`
	Message  string       `json:"message,omitempty"`
}

func (e *TypeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("type error at %s: %s", e.Position.String(), e.Message)
	}
	return fmt.Sprintf("type error at %s: unsupported operand types for %s: %s and %s",
		e.Position.String(), e.Op, e.Left, e.Right)
}

func (e *TypeError) Pos() ast.Position { return e.Position }
