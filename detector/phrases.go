package detector

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// PhraseMatcher finds boilerplate phrases in text regardless of spacing and
// punctuation, so "수 있습니다" also matches "수있습니다".
type PhraseMatcher struct {
	matcher *goahocorasick.Machine
	display map[string]string
}

// NewPhraseMatcher builds the Aho-Corasick automaton over the normalized
// phrases. It returns nil when no usable phrase is given.
func NewPhraseMatcher(phrases []string) (*PhraseMatcher, error) {
	display := make(map[string]string, len(phrases))
	patterns := make([][]rune, 0, len(phrases))
	for _, p := range phrases {
		key := normalizePhraseRunes([]rune(p))
		if len(key) == 0 {
			continue
		}
		if _, ok := display[string(key)]; ok {
			continue
		}
		display[string(key)] = p
		patterns = append(patterns, key)
	}
	if len(patterns) == 0 {
		return nil, nil
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &PhraseMatcher{matcher: m, display: display}, nil
}

// Find returns the distinct phrases present in text, in order of first
// occurrence.
func (p *PhraseMatcher) Find(text string) []string {
	if p == nil {
		return nil
	}
	normalized := normalizePhraseRunes([]rune(text))
	if len(normalized) == 0 {
		return nil
	}
	terms := p.matcher.MultiPatternSearch(normalized, false)
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	var out []string
	for _, t := range terms {
		key := string(t.Word)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if d, ok := p.display[key]; ok {
			out = append(out, d)
		}
	}
	return out
}

func normalizePhraseRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}
