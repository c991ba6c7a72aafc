package expr

import "fmt"

// TokenType identifies a lexical token.
type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	NUMBER // 12, 3.5, .5, 1e3
	IDENT  // fieldA, unit_price

	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	LPAREN   // (
	RPAREN   // )
)

var tokenNames = map[TokenType]string{
	ILLEGAL:  "ILLEGAL",
	EOF:      "end of expression",
	NUMBER:   "number",
	IDENT:    "identifier",
	PLUS:     "'+'",
	MINUS:    "'-'",
	ASTERISK: "'*'",
	SLASH:    "'/'",
	LPAREN:   "'('",
	RPAREN:   "')'",
}

// String implements fmt.Stringer.
func (tt TokenType) String() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical token. Column is 1-based.
type Token struct {
	Type    TokenType
	Literal string
	Column  int
}
