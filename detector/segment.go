package detector

import (
	"strings"
	"unicode"
)

// Segmenter splits raw text into words and sentences.
type Segmenter interface {
	Words(text string) []string
	Sentences(text string) []string
}

// KoreanSegmenter is a rule based segmenter for Korean prose. Words are runs of
// letters and digits separated by whitespace, punctuation or symbols; particles
// stay attached to their stem, as they do with whitespace tokenization.
// Sentences end at terminal punctuation or a line break.
type KoreanSegmenter struct{}

// Words returns the word tokens of text in order.
func (KoreanSegmenter) Words(text string) []string {
	return strings.FieldsFunc(text, isWordBreak)
}

// Sentences returns the sentences of text that contain at least one word.
func (s KoreanSegmenter) Sentences(text string) []string {
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		sentence := strings.TrimSpace(b.String())
		b.Reset()
		if sentence != "" && len(s.Words(sentence)) > 0 {
			out = append(out, sentence)
		}
	}
	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		b.WriteRune(r)
		if !isSentenceTerminal(r) {
			continue
		}
		// Keep runs like "?!" or "..." together.
		if i+1 < len(runes) && isSentenceTerminal(runes[i+1]) {
			continue
		}
		// "3.14" is not a boundary.
		if r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		flush()
	}
	flush()
	return out
}

func isSentenceTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '…':
		return true
	}
	return false
}

func isWordBreak(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
