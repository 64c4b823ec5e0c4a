package minijs

import (
	"errors"

	"github.com/lacquerai/minijs/internal/ast"
	"github.com/lacquerai/minijs/internal/evaluator"
	"github.com/lacquerai/minijs/internal/parser"
)

type (
	// LexError reports an unrecognised character
	LexError = parser.LexError
	// SyntaxError reports tokens that do not form a valid program
	SyntaxError = parser.SyntaxError
	// UndefinedNameError reports a read of, or assignment to, a name absent from the context
	UndefinedNameError = evaluator.UndefinedNameError
	// UndefinedPropertyError reports a property read or write that cannot be resolved
	UndefinedPropertyError = evaluator.UndefinedPropertyError
	// TypeError reports an operator applied to incompatible values
	TypeError = evaluator.TypeError
)

// ErrorKind names the kind of a minijs error, or returns "" for any other error
func ErrorKind(err error) string {
	var (
		lexErr  *LexError
		synErr  *SyntaxError
		nameErr *UndefinedNameError
		propErr *UndefinedPropertyError
		typeErr *TypeError
	)

	switch {
	case errors.As(err, &lexErr):
		return "LexError"
	case errors.As(err, &synErr):
		return "SyntaxError"
	case errors.As(err, &nameErr):
		return "UndefinedNameError"
	case errors.As(err, &propErr):
		return "UndefinedPropertyError"
	case errors.As(err, &typeErr):
		return "TypeError"
	default:
		return ""
	}
}

// ErrorPosition returns the source position carried by a minijs error
func ErrorPosition(err error) (Position, bool) {
	var positioned interface{ Pos() ast.Position }
	if errors.As(err, &positioned) {
		return positioned.Pos(), true
	}
	return Position{}, false
}

// IsIncomplete reports whether err means the source ended before the
// program was complete, so more input could still make it valid
func IsIncomplete(err error) bool {
	var incomplete interface{ Incomplete() bool }
	return errors.As(err, &incomplete) && incomplete.Incomplete()
}
