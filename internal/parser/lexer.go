package parser

import (
	"fmt"
	"strconv"

	"github.com/lacquerai/minijs/internal/ast"
)

// Lexer produces tokens from a source string on demand. A Lexer is not safe
// for concurrent use; create one per source.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a lexer over input
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the whole input. The returned slice always ends with a
// TokenEOF token.
func Tokenize(input string) ([]Token, error) {
	lx := NewLexer(input)
	var tokens []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) position(offset int) ast.Position {
	return ast.Position{Line: 1, Column: offset + 1, Offset: offset}
}

// Next returns the next token. After TokenEOF has been returned every
// further call returns TokenEOF again.
func (l *Lexer) Next() (Token, error) {
	input := l.input

	for l.pos < len(input) && (input[l.pos] == ' ' || input[l.pos] == '\t') {
		l.pos++
	}

	if l.pos >= len(input) {
		return Token{Type: TokenEOF, Pos: l.position(len(input))}, nil
	}

	start := l.pos
	c := input[start]

	switch {
	case isIdentStart(c):
		for l.pos < len(input) && isIdentPart(input[l.pos]) {
			l.pos++
		}
		word := input[start:l.pos]
		if kw, ok := keywords[word]; ok {
			return Token{Type: kw, Value: word, Pos: l.position(start)}, nil
		}
		return Token{Type: TokenIdent, Value: word, Pos: l.position(start)}, nil

	case isDigit(c):
		for l.pos < len(input) && isDigit(input[l.pos]) {
			l.pos++
		}
		digits := input[start:l.pos]
		if _, err := strconv.ParseInt(digits, 10, 64); err != nil {
			return Token{}, &LexError{
				Message:  fmt.Sprintf("number %s is out of range", digits),
				Position: l.position(start),
				Char:     digits,
				Source:   input,
			}
		}
		return Token{Type: TokenNumber, Value: digits, Pos: l.position(start)}, nil

	case c == '"':
		end := start + 1
		for end < len(input) && input[end] != '"' {
			end++
		}
		if end >= len(input) {
			return Token{}, &LexError{
				Message:  "unterminated string",
				Position: l.position(start),
				Char:     `"`,
				Source:   input,
			}
		}
		l.pos = end + 1
		return Token{Type: TokenString, Value: input[start+1 : end], Pos: l.position(start)}, nil
	}

	if start+1 < len(input) {
		two := input[start : start+2]
		if tt, ok := twoCharTokens[two]; ok {
			l.pos += 2
			return Token{Type: tt, Value: two, Pos: l.position(start)}, nil
		}
	}

	if tt, ok := singleCharToken[c]; ok {
		l.pos++
		return Token{Type: tt, Value: string(c), Pos: l.position(start)}, nil
	}

	char := string(c)
	if r := []rune(input[start:]); len(r) > 0 {
		char = string(r[0])
	}
	return Token{}, &LexError{
		Message:  fmt.Sprintf("unexpected character %q", char),
		Position: l.position(start),
		Char:     char,
		Source:   input,
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
