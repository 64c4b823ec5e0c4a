package parser

import (
	"fmt"
	"strings"

	"github.com/lacquerai/minijs/internal/ast"
)

// LexError reports a character the lexer cannot start a token with
type LexError struct {
	Message  string       `json:"message"`
	Position ast.Position `json:"position"`
	Char     string       `json:"char"`
	Source   string       `json:"-"`
}

// Error implements the error interface
func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Position.String(), e.Message)
}

// Pos returns where the error occurred
func (e *LexError) Pos() ast.Position { return e.Position }

// Incomplete reports whether more input could make the source valid
func (e *LexError) Incomplete() bool {
	return strings.HasPrefix(e.Message, "unterminated string")
}

// SyntaxError reports a token sequence that matches no grammar production
type SyntaxError struct {
	Message    string       `json:"message"`
	Position   ast.Position `json:"position"`
	Found      Token        `json:"-"`
	Expected   string       `json:"expected,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`
	Source     string       `json:"-"`
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("syntax error at %s: %s", e.Position.String(), e.Message))

	if e.Suggestion != "" {
		result.WriteString(fmt.Sprintf(" (%s)", e.Suggestion))
	}

	return result.String()
}

// Pos returns where the error occurred
func (e *SyntaxError) Pos() ast.Position { return e.Position }

// Incomplete reports whether the input ended before the expression was
// complete, e.g. "if (a > 1) {".
func (e *SyntaxError) Incomplete() bool {
	return e.Found.Type == TokenEOF
}

// Lexeme returns the offending token text
func (e *SyntaxError) Lexeme() string {
	return e.Found.Lexeme()
}

func newSyntaxError(found Token, expected string) *SyntaxError {
	msg := fmt.Sprintf("unexpected %s", found.String())
	if expected != "" {
		msg = fmt.Sprintf("expected %s but found %s", expected, found.String())
	}
	return &SyntaxError{
		Message:  msg,
		Position: found.Pos,
		Found:    found,
		Expected: expected,
	}
}
