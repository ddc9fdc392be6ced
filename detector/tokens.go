package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// TokenList is the closed vocabulary of AI-favourite connectors and hedges
// plus the boilerplate phrases highlighted for the user.
type TokenList struct {
	Tokens  []string `json:"tokens"`
	Phrases []string `json:"phrases"`
}

var defaultFavoriteTokens = []string{
	"따라서", "결론적으로", "마지막으로", "또한", "한편",
	"그러므로", "이를", "바탕으로", "이러한", "점에서",
	"수", "있습니다", "할", "있다", "것으로", "보인다",
	"매우", "다양한", "효과적인", "본질적으로",
}

var defaultBoilerplatePhrases = []string{
	"결론적으로", "따라서", "그러므로", "마지막으로", "요약하자면", "종합적으로",
	"본질적으로", "이를 바탕으로", "이러한 점에서", "수 있습니다", "할 수 있다",
	"것으로 보인다", "중요한 역할을", "다양한 측면", "효과적인 방법",
}

// DefaultTokenList returns a copy of the built-in vocabulary.
func DefaultTokenList() TokenList {
	return TokenList{
		Tokens:  append([]string(nil), defaultFavoriteTokens...),
		Phrases: append([]string(nil), defaultBoilerplatePhrases...),
	}
}

// EnsureTokenFile writes the default vocabulary to path when the file does not
// exist yet, so users have a starting point for editing it.
func EnsureTokenFile(path string) error {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return nil
	}
	clean = filepath.Clean(clean)
	if _, err := os.Stat(clean); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat token file: %w", err)
	}
	if dir := filepath.Dir(clean); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create token file dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(DefaultTokenList(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	if err := os.WriteFile(clean, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// LoadTokenList returns the vocabulary stored at path. When the path is empty
// the defaults are returned; the boolean reports whether the file was used.
// Sections missing from the file fall back to the defaults.
func LoadTokenList(path string) (TokenList, bool, error) {
	defaults := DefaultTokenList()
	clean := strings.TrimSpace(path)
	if clean == "" {
		return defaults, false, nil
	}
	data, err := os.ReadFile(filepath.Clean(clean))
	if err != nil {
		return defaults, false, err
	}
	var list TokenList
	if err := json.Unmarshal(data, &list); err != nil {
		return defaults, false, fmt.Errorf("decode token file: %w", err)
	}
	if list.Tokens == nil {
		list.Tokens = defaults.Tokens
	}
	if list.Phrases == nil {
		list.Phrases = defaults.Phrases
	}
	list.Tokens = cleanVocabulary(list.Tokens)
	list.Phrases = cleanVocabulary(list.Phrases)
	return list, true, nil
}

func cleanVocabulary(values []string) []string {
	trimmed := lo.Map(values, func(v string, _ int) string {
		return NormalizeText(v)
	})
	return lo.Uniq(lo.Compact(trimmed))
}
