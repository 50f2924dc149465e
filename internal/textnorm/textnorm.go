// Package textnorm converts raw marked-up job text into clean lowercase
// alphabetic token sequences. It strips HTML, segments on Unicode word
// boundaries (UAX #29), and keeps letter-only tokens.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/net/html"
)

// StripMarkup extracts the visible text of an HTML fragment. Text from
// separate nodes is joined with a single space, runs of whitespace are
// collapsed, and the result is trimmed. Script and style contents are
// dropped. Plain text passes through unchanged apart from whitespace
// normalization.
func StripMarkup(raw string) string {
	if raw == "" {
		return ""
	}
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	var parts []string
	skipDepth := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; either way we keep what we got.
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isInvisible(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isInvisible(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			fields := strings.Fields(string(tokenizer.Text()))
			if len(fields) > 0 {
				parts = append(parts, strings.Join(fields, " "))
			}
		}
	}
}

func isInvisible(tag string) bool {
	switch tag {
	case "script", "style", "noscript":
		return true
	}
	return false
}

// Tokens normalizes raw marked-up text into a token sequence: markup is
// stripped, the text is lowercased and segmented on Unicode word boundaries,
// and only tokens composed entirely of letters are kept. Empty input yields
// an empty slice.
func Tokens(raw string) []string {
	text := strings.ToLower(StripMarkup(raw))
	if text == "" {
		return nil
	}
	segments := words.FromString(text)
	tokens := make([]string, 0, len(text)/6)
	for segments.Next() {
		word := segments.Value()
		if isAlphabetic(word) {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// isAlphabetic reports whether s is non-empty and made up of letters only.
// Numeric, punctuation, and mixed segments are excluded from the corpus.
func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
