package detector

import "github.com/abadojack/whatlanggo"

// Language is the detected language of an input text.
type Language struct {
	Code     string
	Reliable bool
}

// IsKorean reports whether the text was reliably identified as Korean, or
// could not be identified at all.
func (l Language) IsKorean() bool {
	return l.Code == "ko" || l.Code == "" || !l.Reliable
}

// DetectLanguage identifies the language of text.
func DetectLanguage(text string) Language {
	info := whatlanggo.Detect(text)
	if info.Lang == -1 {
		return Language{}
	}
	return Language{
		Code:     info.Lang.Iso6391(),
		Reliable: info.IsReliable(),
	}
}
