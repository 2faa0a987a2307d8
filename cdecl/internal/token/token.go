package token

import (
	"unicode"
)

type Type int

const (
	Ident Type = iota
	Number
	Punct
	String
	Char
)

func (t Type) String() string {
	switch t {
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case Punct:
		return "punctuation"
	case String:
		return "string"
	case Char:
		return "character"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

var twoCharPuncts = map[string]bool{
	"::": true,
	"<<": true,
	">>": true,
	"&&": true,
	"||": true,
	"->": true,
	"==": true,
	"!=": true,
	"<=": true,
	">=": true,
	"++": true,
	"--": true,
}

// Tokenize splits C or C++ declaration source into tokens. Comments and
// preprocessor directives are dropped.
func Tokenize(input string) []Token {
	var tokens []Token
	line := 1
	lineStart := true
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			lineStart = true
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		// Preprocessor directive, with backslash continuations
		if r == '#' && lineStart {
			for i < len(runes) && runes[i] != '\n' {
				if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] == '\n' {
					line++
					i++
				}
				i++
			}
			i--
			continue
		}
		lineStart = false

		// Line comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			i--
			continue
		}

		// Block comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '*' {
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				if runes[i] == '\n' {
					line++
				}
				i++
			}
			i++
			continue
		}

		// String or character literal
		if r == '"' || r == '\'' {
			quote := r
			start := i + 1
			i++
			for i < len(runes) && runes[i] != quote && runes[i] != '\n' {
				if runes[i] == '\\' {
					i++
				}
				i++
			}
			end := min(i, len(runes))
			typ := String
			if quote == '\'' {
				typ = Char
			}
			tokens = append(tokens, Token{string(runes[start:end]), typ, line})
			continue
		}

		if unicode.IsDigit(r) {
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || unicode.IsLetter(runes[i]) || runes[i] == '.' || runes[i] == '\'') {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Number, line})
			i--
			continue
		}

		if unicode.IsLetter(r) || r == '_' || r == '$' {
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '$') {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Ident, line})
			i--
			continue
		}

		if r == '.' && i+2 < len(runes) && runes[i+1] == '.' && runes[i+2] == '.' {
			tokens = append(tokens, Token{"...", Punct, line})
			i += 2
			continue
		}

		if i+1 < len(runes) && twoCharPuncts[string(runes[i:i+2])] {
			tokens = append(tokens, Token{string(runes[i : i+2]), Punct, line})
			i++
			continue
		}

		tokens = append(tokens, Token{string(r), Punct, line})
	}

	return tokens
}
