package token

import (
	"unicode"
)

type Type int

const (
	LBrace Type = iota
	RBrace
	LBracket
	RBracket
	Colon
	Semicolon
	Ident
	Number
	Illegal
)

func (t Type) String() string {
	switch t {
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Colon:
		return "':'"
	case Semicolon:
		return "';'"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case Illegal:
		return "illegal character"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

var punct = map[rune]Type{
	'{': LBrace,
	'}': RBrace,
	'[': LBracket,
	']': RBracket,
	':': Colon,
	';': Semicolon,
}

// Tokenize splits schema source into tokens. Characters that cannot start
// a token are returned as Illegal so the parser can report them with a line.
func Tokenize(input string) []Token {
	var tokens []Token
	line := 1
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		// Line comment
		if r == '#' {
			for i+1 < len(runes) && runes[i+1] != '\n' {
				i++
			}
			continue
		}

		if typ, ok := punct[r]; ok {
			tokens = append(tokens, Token{string(r), typ, line})
			continue
		}

		if isDigit(r) {
			start := i
			for i < len(runes) && isIdentChar(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Number, line})
			i--
			continue
		}

		if isLetter(r) {
			start := i
			for i < len(runes) && isIdentChar(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Ident, line})
			i--
			continue
		}

		tokens = append(tokens, Token{string(r), Illegal, line})
	}

	return tokens
}

// Identifiers are ASCII only: [A-Za-z_][A-Za-z0-9_]*.
func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func isIdentChar(r rune) bool { return isLetter(r) || isDigit(r) }
