package formula

// TokenType represents the kinds of tokens a formula is made of
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenVariable
	TokenOperator
	TokenLeftParen
	TokenRightParen
	TokenWhitespace
	TokenError
)

var tokenTypeNames = map[TokenType]string{
	TokenEOF:        "end of formula",
	TokenNumber:     "number",
	TokenVariable:   "variable",
	TokenOperator:   "operator",
	TokenLeftParen:  "'('",
	TokenRightParen: "')'",
	TokenWhitespace: "whitespace",
	TokenError:      "illegal token",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// character classification constants. slightly easier to read.
const (
	charNull       = 0
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charUnderscore = '_'
)

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune position in input
}

// Lexer splits a formula expression into tokens. it only knows about the
// shape of individual tokens, the order they appear in is checked by the
// formula constructor.
type Lexer struct {
	runes  []rune
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given expression
func NewLexer(input string) *Lexer {
	return &Lexer{
		runes:  []rune(input),
		tokens: []Token{},
	}
}

// Tokenize scans the whole input. whitespace is dropped, anything that is not
// a parenthesis, an operator, a variable or a number is reported as an
// illegal token.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok := l.nextToken()
		switch tok.Type {
		case TokenEOF:
			return l.tokens, nil
		case TokenError:
			return nil, &FormatError{Pos: tok.Pos, Token: tok.Value, Message: "illegal token"}
		case TokenWhitespace:
			continue
		}
		l.tokens = append(l.tokens, tok)
	}
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() Token {
	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	startPos := l.pos
	ch := l.current()

	if l.isWhitespace(ch) {
		l.skipWhitespace()
		return Token{Type: TokenWhitespace, Value: l.substring(startPos, l.pos), Pos: startPos}
	}

	if l.isDigit(ch) || (ch == charPeriod && l.isDigit(l.peek(1))) {
		return l.scanNumber()
	}

	switch ch {
	case charLParen:
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case charRParen:
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case charPlus, charMinus, charAsterisk, charSlash:
		l.pos++
		return Token{Type: TokenOperator, Value: string(ch), Pos: startPos}
	}

	if l.isAlpha(ch) || ch == charUnderscore {
		return l.scanVariable()
	}

	l.pos++
	return Token{Type: TokenError, Value: string(ch), Pos: startPos}
}

// scanNumber consumes digits, an optional fraction and an optional exponent.
// both "5." and ".5" are numbers.
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && l.isDigit(l.current()) {
		l.pos++
	}

	if l.current() == charPeriod {
		l.pos++
		for l.pos < len(l.runes) && l.isDigit(l.current()) {
			l.pos++
		}
	}

	if l.current() == 'e' || l.current() == 'E' {
		savedPos := l.pos
		l.pos++

		if l.current() == charPlus || l.current() == charMinus {
			l.pos++
		}

		// must have at least one digit after e/E
		if !l.isDigit(l.current()) {
			// not an exponent, the e starts the next token
			l.pos = savedPos
		} else {
			for l.pos < len(l.runes) && l.isDigit(l.current()) {
				l.pos++
			}
		}
	}

	return Token{Type: TokenNumber, Value: l.substring(startPos, l.pos), Pos: startPos}
}

func (l *Lexer) scanVariable() Token {
	startPos := l.pos
	for l.pos < len(l.runes) && (l.isAlphaNumeric(l.current()) || l.current() == charUnderscore) {
		l.pos++
	}
	return Token{Type: TokenVariable, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// helper methods for character navigation and classification

func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) && l.isWhitespace(l.current()) {
		l.pos++
	}
}

func (l *Lexer) isWhitespace(ch rune) bool {
	return ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn
}

func (l *Lexer) isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func (l *Lexer) isAlphaNumeric(ch rune) bool {
	return l.isAlpha(ch) || l.isDigit(ch)
}
