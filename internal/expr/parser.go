package expr

import (
	"fmt"
	"strconv"
)

// Operator precedences, lowest first.
const (
	_ int = iota
	LOWEST
	SUM     // + -
	PRODUCT // * /
	PREFIX  // -X
)

var precedences = map[TokenType]int{
	PLUS:     SUM,
	MINUS:    SUM,
	ASTERISK: PRODUCT,
	SLASH:    PRODUCT,
}

type (
	prefixParseFn func() Node
	infixParseFn  func(Node) Node
)

// Parser is a Pratt parser over the tokens of a single expression. It stops
// at the first error.
type Parser struct {
	l   *Lexer
	err *SyntaxError

	curToken  Token
	peekToken Token

	prefixParseFns map[TokenType]prefixParseFn
	infixParseFns  map[TokenType]infixParseFn
}

// NewParser creates a parser reading from l.
func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = map[TokenType]prefixParseFn{
		NUMBER: p.parseNumberLiteral,
		IDENT:  p.parseIdentifier,
		MINUS:  p.parsePrefixExpression,
		LPAREN: p.parseGroupedExpression,
	}
	p.infixParseFns = map[TokenType]infixParseFn{
		PLUS:     p.parseInfixExpression,
		MINUS:    p.parseInfixExpression,
		ASTERISK: p.parseInfixExpression,
		SLASH:    p.parseInfixExpression,
	}

	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the whole input as one expression.
func (p *Parser) Parse() (Node, error) {
	if p.curToken.Type == EOF {
		return nil, &SyntaxError{Column: p.curToken.Column, Msg: "empty expression"}
	}
	n := p.parseExpression(LOWEST)
	if p.err != nil {
		return nil, p.err
	}
	if p.peekToken.Type != EOF {
		p.unexpected(p.peekToken)
		return nil, p.err
	}
	return n, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) fail(column int, format string, args ...any) {
	if p.err == nil {
		p.err = &SyntaxError{Column: column, Msg: fmt.Sprintf(format, args...)}
	}
}

func (p *Parser) unexpected(tok Token) {
	switch tok.Type {
	case ILLEGAL:
		p.fail(tok.Column, "invalid character sequence '%s'", tok.Literal)
	case EOF:
		p.fail(tok.Column, "unexpected end of expression")
	default:
		p.fail(tok.Column, "unexpected %s", tok.Type)
	}
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseExpression(precedence int) Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.unexpected(p.curToken)
		return nil
	}
	left := prefix()

	for p.err == nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseNumberLiteral() Node {
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.fail(p.curToken.Column, "invalid number literal '%s'", p.curToken.Literal)
		return nil
	}
	return &NumberLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseIdentifier() Node {
	return &Identifier{Token: p.curToken, Name: p.curToken.Literal}
}

func (p *Parser) parsePrefixExpression() Node {
	n := &PrefixExpression{Token: p.curToken, Operator: p.curToken.Literal}
	p.nextToken()
	n.Right = p.parseExpression(PREFIX)
	return n
}

func (p *Parser) parseInfixExpression(left Node) Node {
	n := &InfixExpression{Token: p.curToken, Operator: p.curToken.Literal, Left: left}
	precedence := p.curPrecedence()
	p.nextToken()
	n.Right = p.parseExpression(precedence)
	return n
}

func (p *Parser) parseGroupedExpression() Node {
	open := p.curToken
	p.nextToken()
	n := p.parseExpression(LOWEST)
	if p.err != nil {
		return nil
	}
	if p.peekToken.Type != RPAREN {
		if p.peekToken.Type == EOF {
			p.fail(open.Column, "unbalanced parentheses: '(' is never closed")
		} else {
			p.unexpected(p.peekToken)
		}
		return nil
	}
	p.nextToken()
	return n
}
