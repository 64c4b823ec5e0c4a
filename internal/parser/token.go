package parser

import (
	"fmt"

	"github.com/lacquerai/minijs/internal/ast"
)

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber
	TokenString

	TokenPlus   // +
	TokenMinus  // -
	TokenAssign // =
	TokenGt     // >
	TokenEq     // ==
	TokenAnd    // &&
	TokenOr     // ||

	TokenLParen // (
	TokenRParen // )
	TokenLBrace // {
	TokenRBrace // }
	TokenDot    // .

	TokenTrue  // true
	TokenFalse // false
	TokenIf    // if
	TokenElse  // else
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "end of input",
	TokenIdent:  "identifier",
	TokenNumber: "number",
	TokenString: "string",
	TokenPlus:   "'+'",
	TokenMinus:  "'-'",
	TokenAssign: "'='",
	TokenGt:     "'>'",
	TokenEq:     "'=='",
	TokenAnd:    "'&&'",
	TokenOr:     "'||'",
	TokenLParen: "'('",
	TokenRParen: "')'",
	TokenLBrace: "'{'",
	TokenRBrace: "'}'",
	TokenDot:    "'.'",
	TokenTrue:   "'true'",
	TokenFalse:  "'false'",
	TokenIf:     "'if'",
	TokenElse:   "'else'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a single lexical unit. Value holds the raw lexeme, except for
// strings where it holds the text between the quotes.
type Token struct {
	Type  TokenType
	Value string
	Pos   ast.Position
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return t.Type.String()
	case TokenString:
		return fmt.Sprintf("%q", t.Value)
	default:
		return fmt.Sprintf("'%s'", t.Value)
	}
}

// Lexeme returns the token as it appeared in the source
func (t Token) Lexeme() string {
	if t.Type == TokenString {
		return `"` + t.Value + `"`
	}
	return t.Value
}

var (
	keywords        map[string]TokenType
	twoCharTokens   map[string]TokenType
	singleCharToken map[byte]TokenType
)

func init() {
	keywords = map[string]TokenType{
		"true":  TokenTrue,
		"false": TokenFalse,
		"if":    TokenIf,
		"else":  TokenElse,
	}

	twoCharTokens = map[string]TokenType{
		"==": TokenEq,
		"&&": TokenAnd,
		"||": TokenOr,
	}

	singleCharToken = map[byte]TokenType{
		'+': TokenPlus,
		'-': TokenMinus,
		'>': TokenGt,
		'=': TokenAssign,
		'.': TokenDot,
		'(': TokenLParen,
		')': TokenRParen,
		'{': TokenLBrace,
		'}': TokenRBrace,
	}
}

// IsKeyword reports whether name is reserved
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}
