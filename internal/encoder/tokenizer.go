package encoder

import (
	"strings"
	"unicode"
)

const defaultMinTokenLength = 2

// Tokenize lowercases text and splits it into runs of letters, digits and underscores.
// Tokens shorter than minLen runes and stop words are dropped.
func Tokenize(text string, minLen int, stopWords map[string]struct{}) []string {
	if minLen <= 0 {
		minLen = defaultMinTokenLength
	}

	var (
		tokens []string
		word   strings.Builder
		runes  int
	)

	flush := func() {
		if runes >= minLen {
			token := word.String()
			if _, stop := stopWords[token]; !stop {
				tokens = append(tokens, token)
			}
		}
		word.Reset()
		runes = 0
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			word.WriteRune(r)
			runes++
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// TruncateTokens keeps at most limit whitespace-delimited tokens of text.
func TruncateTokens(text string, limit int) string {
	fields := strings.Fields(text)
	if limit <= 0 || len(fields) <= limit {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:limit], " ")
}
