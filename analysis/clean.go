package analysis

import (
	"strings"
	"unicode"
)

// CleanText lowercases text, turns digits and punctuation into spaces
// (keeping hyphens between word characters), drops one-character words and
// collapses whitespace.
func CleanText(text string) string {
	src := []rune(strings.ToLower(text))
	for i, r := range src {
		if r >= '0' && r <= '9' {
			src[i] = ' '
		}
	}

	out := make([]rune, len(src))
	for i, r := range src {
		switch {
		case unicode.IsSpace(r):
			out[i] = r
		case r == '-' && i > 0 && i+1 < len(src) && isWord(src[i-1]) && isWord(src[i+1]):
			out[i] = r
		case r == '_' || !isWord(r):
			out[i] = ' '
		default:
			out[i] = r
		}
	}

	// A maximal run of one word character is a one-letter word.
	for i := range out {
		if !isWord(out[i]) {
			continue
		}
		startsRun := i == 0 || !isWord(out[i-1])
		endsRun := i+1 == len(out) || !isWord(out[i+1])
		if startsRun && endsRun {
			out[i] = ' '
		}
	}

	return strings.Join(strings.Fields(string(out)), " ")
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Chunk splits text at word boundaries into pieces of at most size
// characters. A single word longer than size becomes its own chunk.
func Chunk(text string, size int) []string {
	var (
		chunks  []string
		current []string
		length  int
	)
	for _, word := range strings.Fields(text) {
		n := len([]rune(word))
		if len(current) == 0 {
			current, length = []string{word}, n
			continue
		}
		if length+1+n <= size {
			current = append(current, word)
			length += 1 + n
			continue
		}
		chunks = append(chunks, strings.Join(current, " "))
		current, length = []string{word}, n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
