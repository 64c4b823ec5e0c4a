package parser

import (
	"strconv"

	"github.com/lacquerai/minijs/internal/ast"
)

// Parser builds an AST from a token slice.
//
// The grammar is deliberately flat: +, -, >, ==, && and || all sit on one
// precedence level and associate left to right, each combining the
// expression built so far with a term. Assignments, property reads and
// conditionals may only start an expression, so "1 + a.x" is rejected while
// "a.x - 1" and "1 + (a.x)" are accepted.
//
//	program    := <empty> | expression EOF
//	expression := head { binop term }
//	head       := IDENT '=' expression
//	            | IDENT '.' IDENT '=' expression
//	            | IDENT '.' IDENT
//	            | 'if' '(' expression ')' '{' expression '}' [ 'else' '{' expression '}' ]
//	            | term
//	term       := IDENT | factor
//	factor     := NUMBER | STRING | 'true' | 'false' | '(' expression ')' | '{' expression '}'
type Parser struct {
	tokens []Token
	pos    int
	source string
}

// Parse tokenizes and parses input. Empty input yields an empty program.
func Parse(input string) (*ast.Program, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}

	p := &Parser{tokens: tokens, source: input}
	return p.parseProgram()
}

// ParseTokens parses an already tokenized source. The slice must end with
// TokenEOF.
func ParseTokens(tokens []Token) (*ast.Program, error) {
	p := &Parser{tokens: tokens}
	return p.parseProgram()
}

func (p *Parser) current() Token {
	return p.peek(0)
}

func (p *Parser) peek(n int) Token {
	if p.pos+n >= len(p.tokens) {
		var pos ast.Position
		if len(p.tokens) > 0 {
			pos = p.tokens[len(p.tokens)-1].Pos
		}
		return Token{Type: TokenEOF, Pos: pos}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, p.errorf(tok, tt.String())
	}
	p.advance()
	return tok, nil
}

func (p *Parser) errorf(found Token, expected string) *SyntaxError {
	err := newSyntaxError(found, expected)
	err.Source = p.source
	return err
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	if p.current().Type == TokenEOF {
		return &ast.Program{}, nil
	}

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if tok := p.current(); tok.Type != TokenEOF {
		err := p.errorf(tok, "")
		err.Message = "unexpected " + tok.String() + " after complete expression"
		if tok.Type == TokenDot {
			err.Suggestion = "property access is only allowed at the start of an expression; wrap it in parentheses"
		}
		return nil, err
	}

	return &ast.Program{Body: body}, nil
}

func (p *Parser) parseExpression() (ast.Node, error) {
	left, err := p.parseHead()
	if err != nil {
		return nil, err
	}

	for {
		opTok := p.current()
		switch opTok.Type {
		case TokenPlus, TokenMinus, TokenGt, TokenEq, TokenAnd, TokenOr:
		default:
			return left, nil
		}
		p.advance()

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		switch opTok.Type {
		case TokenAnd:
			left = &ast.LogicalOp{Position: left.Pos(), Op: ast.OpAnd, Left: left, Right: right}
		case TokenOr:
			left = &ast.LogicalOp{Position: left.Pos(), Op: ast.OpOr, Left: left, Right: right}
		default:
			left = &ast.BinaryOp{Position: left.Pos(), Op: ast.BinaryOpType(opTok.Value), Left: left, Right: right}
		}
	}
}

func (p *Parser) parseHead() (ast.Node, error) {
	tok := p.current()

	switch tok.Type {
	case TokenIf:
		return p.parseConditional()
	case TokenIdent:
		switch p.peek(1).Type {
		case TokenAssign:
			p.advance() // consume name
			p.advance() // consume =
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &ast.Assignment{Position: tok.Pos, Target: tok.Value, Value: value}, nil
		case TokenDot:
			return p.parseProperty()
		}
	}

	return p.parseTerm()
}

func (p *Parser) parseProperty() (ast.Node, error) {
	target := p.advance()
	p.advance() // consume .

	prop, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}

	if p.current().Type != TokenAssign {
		return &ast.PropertyAccess{Position: target.Pos, Target: target.Value, Property: prop.Value}, nil
	}
	p.advance() // consume =

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &ast.PropertyAssignment{
		Position: target.Pos,
		Target:   target.Value,
		Property: prop.Value,
		Value:    value,
	}, nil
}

func (p *Parser) parseConditional() (ast.Node, error) {
	ifTok := p.advance()

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	then, err := p.parseBranch()
	if err != nil {
		return nil, err
	}

	cond := &ast.Conditional{Position: ifTok.Pos, Test: test, Then: then}

	if p.current().Type == TokenElse {
		p.advance()
		cond.Else, err = p.parseBranch()
		if err != nil {
			return nil, err
		}
	}

	return cond, nil
}

// parseBranch reads the braces around an if/else body. They delimit the
// body and do not produce a Grouping node.
func (p *Parser) parseBranch() (ast.Node, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Parser) parseTerm() (ast.Node, error) {
	tok := p.current()
	if tok.Type == TokenIdent {
		p.advance()
		return &ast.Identifier{Position: tok.Pos, Name: tok.Value}, nil
	}
	return p.parseFactor()
}

func (p *Parser) parseFactor() (ast.Node, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		val, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "number")
		}
		p.advance()
		return ast.NumberLit(tok.Pos, val), nil
	case TokenString:
		p.advance()
		return ast.StringLit(tok.Pos, tok.Value), nil
	case TokenTrue:
		p.advance()
		return ast.BoolLit(tok.Pos, true), nil
	case TokenFalse:
		p.advance()
		return ast.BoolLit(tok.Pos, false), nil
	case TokenLParen, TokenLBrace:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		closing := TokenRParen
		if tok.Type == TokenLBrace {
			closing = TokenRBrace
		}
		if _, err := p.expect(closing); err != nil {
			return nil, err
		}
		return &ast.Grouping{Position: tok.Pos, Inner: inner, Brace: tok.Type == TokenLBrace}, nil
	default:
		return nil, p.errorf(tok, "expression")
	}
}
