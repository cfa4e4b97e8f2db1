// Package cite converts the model's markdown into displayable HTML and
// binds inline [n] citation markers to selected sources. Detection (the
// tokenizer) and resolution (the linker) are separate stages.
package cite

import (
	"regexp"
	"strconv"
	"strings"
)

// TokenKind discriminates tokenizer output.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenMarker
)

// Token is either a run of literal text or one [n] citation marker.
// Text always holds the original substring, so concatenating token texts
// reproduces the input exactly.
type Token struct {
	Kind  TokenKind
	Text  string
	Index int
}

var combinedMarker = regexp.MustCompile(`\[\s*(\d+(?:\s*,\s*\d+)+)\s*\]`)

// SplitCombined rewrites combined citations like [1, 2] into individual
// markers [1] [2], and spaces out directly adjacent markers so each one
// resolves independently.
func SplitCombined(s string) string {
	s = combinedMarker.ReplaceAllStringFunc(s, func(m string) string {
		inner := strings.Trim(m, "[]")
		parts := strings.Split(inner, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if n := strings.TrimSpace(p); n != "" {
				out = append(out, "["+n+"]")
			}
		}
		return strings.Join(out, " ")
	})

	for {
		next := strings.ReplaceAll(s, "][", "] [")
		if next == s {
			return s
		}
		s = next
	}
}

// Tokenize scans text for citation marker syntax. A marker is [digits]
// not preceded by '!', ']', '/', or an ASCII alphanumeric (so image syntax,
// link-reference tails, and URL path segments stay literal) and not
// followed by another ']'. Everything else is literal text.
func Tokenize(text string) []Token {
	var (
		tokens []Token
		lit    strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenLiteral, Text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); {
		if text[i] != '[' {
			lit.WriteByte(text[i])
			i++
			continue
		}

		j := i + 1
		for j < len(text) && text[j] >= '0' && text[j] <= '9' {
			j++
		}
		isMarker := j > i+1 && j < len(text) && text[j] == ']' &&
			(j+1 >= len(text) || text[j+1] != ']') &&
			boundaryOK(lit.String())
		if !isMarker {
			lit.WriteByte('[')
			i++
			continue
		}

		n, err := strconv.Atoi(text[i+1 : j])
		if err != nil {
			lit.WriteByte('[')
			i++
			continue
		}
		flush()
		tokens = append(tokens, Token{Kind: TokenMarker, Text: text[i : j+1], Index: n})
		i = j + 1
	}
	flush()
	return tokens
}

func boundaryOK(before string) bool {
	if before == "" {
		return true
	}
	p := before[len(before)-1]
	switch {
	case p == '!' || p == ']' || p == '/':
		return false
	case p >= '0' && p <= '9', p >= 'a' && p <= 'z', p >= 'A' && p <= 'Z':
		return false
	}
	return true
}
