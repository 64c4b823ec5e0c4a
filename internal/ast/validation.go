package ast

import (
	"fmt"
	"regexp"
	"strings"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError represents a structural problem in a tree
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	if ve.Path != "" {
		return fmt.Sprintf("%s: %s", ve.Path, ve.Message)
	}
	return ve.Message
}

// ValidationResult contains the results of tree validation
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error
func (vr *ValidationResult) AddError(path, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Path:    path,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ToError returns a combined error if there are validation errors
func (vr *ValidationResult) ToError() error {
	if !vr.HasErrors() {
		return nil
	}

	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = err.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// Validate checks that a tree is well formed: required children are set,
// names are identifiers, operators belong to their node kind, and no node
// is reachable twice.
func Validate(root Node) *ValidationResult {
	result := &ValidationResult{Valid: true}
	seen := make(map[Node]bool)
	validateNode(root, string(KindProgram), seen, result)
	return result
}

func validateNode(n Node, path string, seen map[Node]bool, result *ValidationResult) {
	if n == nil {
		return
	}
	if seen[n] {
		result.AddError(path, "node is shared by more than one parent")
		return
	}
	seen[n] = true

	requireChild := func(child Node, field string) {
		if child == nil {
			result.AddError(path, field+" is required")
			return
		}
		validateNode(child, path+"."+field, seen, result)
	}
	requireName := func(name, field string) {
		if !identPattern.MatchString(name) {
			result.AddError(path, fmt.Sprintf("%s %q is not a valid identifier", field, name))
		}
	}

	switch node := n.(type) {
	case *Program:
		if node.Body != nil {
			validateNode(node.Body, path+".body", seen, result)
		}
	case *Literal:
		switch node.Type {
		case LiteralNumber, LiteralBool, LiteralString:
		default:
			result.AddError(path, fmt.Sprintf("unknown literal type %q", node.Type))
		}
		if node.Type == LiteralString && strings.Contains(node.Str, `"`) {
			result.AddError(path, "string literal cannot contain a double quote")
		}
	case *Identifier:
		requireName(node.Name, "name")
	case *PropertyAccess:
		requireName(node.Target, "target")
		requireName(node.Property, "property")
	case *Assignment:
		requireName(node.Target, "target")
		requireChild(node.Value, "value")
	case *PropertyAssignment:
		requireName(node.Target, "target")
		requireName(node.Property, "property")
		requireChild(node.Value, "value")
	case *BinaryOp:
		switch node.Op {
		case OpAdd, OpSub, OpGt, OpEq:
		default:
			result.AddError(path, fmt.Sprintf("unknown binary operator %q", node.Op))
		}
		requireChild(node.Left, "left")
		requireChild(node.Right, "right")
	case *LogicalOp:
		switch node.Op {
		case OpAnd, OpOr:
		default:
			result.AddError(path, fmt.Sprintf("unknown logical operator %q", node.Op))
		}
		requireChild(node.Left, "left")
		requireChild(node.Right, "right")
	case *Conditional:
		requireChild(node.Test, "test")
		requireChild(node.Then, "then")
		if node.Else != nil {
			validateNode(node.Else, path+".else", seen, result)
		}
	case *Grouping:
		requireChild(node.Inner, "inner")
	}
}
