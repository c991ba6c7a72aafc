package expr

// Lexer turns an expression string into tokens. It only understands ASCII;
// any other byte becomes an ILLEGAL token.
type Lexer struct {
	input string
	pos   int
}

// NewLexer returns a lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token, or EOF once the input is exhausted.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: EOF, Column: l.pos + 1}
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '+':
		l.pos++
		return Token{Type: PLUS, Literal: "+", Column: start + 1}
	case ch == '-':
		l.pos++
		return Token{Type: MINUS, Literal: "-", Column: start + 1}
	case ch == '*':
		l.pos++
		return Token{Type: ASTERISK, Literal: "*", Column: start + 1}
	case ch == '/':
		l.pos++
		return Token{Type: SLASH, Literal: "/", Column: start + 1}
	case ch == '(':
		l.pos++
		return Token{Type: LPAREN, Literal: "(", Column: start + 1}
	case ch == ')':
		l.pos++
		return Token{Type: RPAREN, Literal: ")", Column: start + 1}
	case isDigit(ch) || (ch == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.readNumber()
	case isLetter(ch):
		for l.pos < len(l.input) && (isLetter(l.input[l.pos]) || isDigit(l.input[l.pos])) {
			l.pos++
		}
		return Token{Type: IDENT, Literal: l.input[start:l.pos], Column: start + 1}
	default:
		l.pos++
		return Token{Type: ILLEGAL, Literal: string(ch), Column: start + 1}
	}
}

// readNumber consumes digits, an optional fraction and an optional exponent.
// A malformed exponent ("1e", "2e+") is returned as ILLEGAL.
func (l *Lexer) readNumber() Token {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		digits := l.pos
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		if l.pos == digits {
			return Token{Type: ILLEGAL, Literal: l.input[start:l.pos], Column: start + 1}
		}
	}
	// "12abc" is not a number followed by a name.
	if l.pos < len(l.input) && (isLetter(l.input[l.pos]) || l.input[l.pos] == '.') {
		for l.pos < len(l.input) && (isLetter(l.input[l.pos]) || isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
			l.pos++
		}
		return Token{Type: ILLEGAL, Literal: l.input[start:l.pos], Column: start + 1}
	}
	return Token{Type: NUMBER, Literal: l.input[start:l.pos], Column: start + 1}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}
