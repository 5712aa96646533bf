// Package formula parses and evaluates infix arithmetic expressions over
// floating point numbers and named variables.
//
// A Formula is immutable once built. Construction checks the whole syntax so
// evaluation can only fail with an evaluation error value (division by zero
// or an unknown variable), never with a malformed expression.
package formula

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Normalizer maps a variable name to its canonical form
type Normalizer func(string) string

// Validator reports whether a normalized variable name is acceptable
type Validator func(string) bool

// Lookup resolves a variable to its numeric value. any error means the
// variable is unknown.
type Lookup func(name string) (float64, error)

// variablePattern is what every normalized variable must still look like
var variablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsVariable reports whether s is shaped like a variable name
func IsVariable(s string) bool {
	return variablePattern.MatchString(s)
}

// Formula is a syntactically valid expression
type Formula struct {
	tokens    []Token
	variables []string
	display   string
	canonical string
}

// TokenState represents the validator state between two tokens
type TokenState int

const (
	StateStart TokenState = iota
	StateAfterValue
	StateAfterOperator
	StateAfterLeftParen
	StateAfterRightParen
)

// tokenTransitions maps the current state to valid next token types
var tokenTransitions = map[TokenState]map[TokenType]bool{
	StateStart: {
		TokenNumber:    true,
		TokenVariable:  true,
		TokenLeftParen: true,
	},
	StateAfterValue: { // after number or variable
		TokenOperator:   true,
		TokenRightParen: true,
		TokenEOF:        true,
	},
	StateAfterOperator: {
		TokenNumber:    true,
		TokenVariable:  true,
		TokenLeftParen: true,
	},
	StateAfterLeftParen: {
		TokenNumber:    true,
		TokenVariable:  true,
		TokenLeftParen: true,
	},
	StateAfterRightParen: {
		TokenOperator:   true,
		TokenRightParen: true,
		TokenEOF:        true,
	},
}

// Parse builds a formula without any variable normalization or validation
func Parse(expr string) (*Formula, error) {
	return New(expr, nil, nil)
}

// New tokenizes and validates expr. every variable is passed through
// normalize and must then satisfy isValid. nil functions mean identity and
// accept-all.
func New(expr string, normalize Normalizer, isValid Validator) (*Formula, error) {
	if normalize == nil {
		normalize = func(s string) string { return s }
	}
	if isValid == nil {
		isValid = func(string) bool { return true }
	}

	tokens, err := NewLexer(expr).Tokenize()
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &FormatError{Pos: -1, Message: "empty formula"}
	}

	first, last := tokens[0], tokens[len(tokens)-1]
	if !tokenTransitions[StateStart][first.Type] {
		return nil, &FormatError{Pos: first.Pos, Token: first.Value, Message: "formula cannot start with " + first.Type.String()}
	}
	if last.Type != TokenNumber && last.Type != TokenVariable && last.Type != TokenRightParen {
		return nil, &FormatError{Pos: last.Pos, Token: last.Value, Message: "formula cannot end with " + last.Type.String()}
	}

	f := &Formula{tokens: make([]Token, 0, len(tokens))}
	seen := make(map[string]struct{})
	var display, canonical strings.Builder

	state := StateStart
	depth := 0
	for _, tok := range tokens {
		if !tokenTransitions[state][tok.Type] {
			return nil, successorError(state, tok)
		}

		text, canon := tok.Value, tok.Value
		switch tok.Type {
		case TokenLeftParen:
			depth++
			state = StateAfterLeftParen
		case TokenRightParen:
			depth--
			if depth < 0 {
				return nil, &FormatError{Pos: tok.Pos, Token: tok.Value, Message: "unbalanced parentheses: too many closing parentheses"}
			}
			state = StateAfterRightParen
		case TokenOperator:
			state = StateAfterOperator
		case TokenNumber:
			v, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil || math.IsInf(v, 0) {
				return nil, &FormatError{Pos: tok.Pos, Token: tok.Value, Message: "number out of range"}
			}
			canon = strconv.FormatFloat(v, 'g', -1, 64)
			state = StateAfterValue
		case TokenVariable:
			name := normalize(tok.Value)
			if !variablePattern.MatchString(name) {
				return nil, &FormatError{Pos: tok.Pos, Token: tok.Value, Message: "variable normalizes to an illegal name " + strconv.Quote(name)}
			}
			if !isValid(name) {
				return nil, &FormatError{Pos: tok.Pos, Token: tok.Value, Message: "variable rejected by validator"}
			}
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				f.variables = append(f.variables, name)
			}
			text, canon = name, name
			state = StateAfterValue
		}

		f.tokens = append(f.tokens, Token{Type: tok.Type, Value: text, Pos: tok.Pos})
		display.WriteString(text)
		canonical.WriteString(canon)
	}

	if depth != 0 {
		return nil, &FormatError{Pos: -1, Message: "unbalanced parentheses: missing closing parenthesis"}
	}

	f.display = display.String()
	f.canonical = canonical.String()
	return f, nil
}

// successorError explains why tok cannot follow the current state
func successorError(state TokenState, tok Token) *FormatError {
	switch state {
	case StateAfterValue, StateAfterRightParen:
		return &FormatError{Pos: tok.Pos, Token: tok.Value, Message: "expected an operator or ')' but found " + tok.Type.String()}
	default:
		return &FormatError{Pos: tok.Pos, Token: tok.Value, Message: "expected a number, variable or '(' but found " + tok.Type.String()}
	}
}

// Variables returns every distinct normalized variable in order of first
// appearance
func (f *Formula) Variables() []string {
	out := make([]string, len(f.variables))
	copy(out, f.variables)
	return out
}

// Tokens returns a copy of the formula's tokens with variables normalized
func (f *Formula) Tokens() []Token {
	out := make([]Token, len(f.tokens))
	copy(out, f.tokens)
	return out
}

// String returns the formula without whitespace and with normalized
// variables. numbers are kept as written.
func (f *Formula) String() string {
	return f.display
}

// Canonical is like String but with every number in its shortest decimal
// form, so "2.0" and "2" produce the same text.
func (f *Formula) Canonical() string {
	return f.canonical
}

// Equal reports whether both formulas have the same canonical form
func (f *Formula) Equal(other *Formula) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.canonical == other.canonical
}

// Hash returns a hash of the canonical form, consistent with Equal
func (f *Formula) Hash() uint64 {
	return xxhash.Sum64String(f.canonical)
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
