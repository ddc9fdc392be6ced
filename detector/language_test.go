package detector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLanguage_IsKorean(t *testing.T) {
	req := require.New(t)
	req.True(Language{}.IsKorean())
	req.True(Language{Code: "ko", Reliable: true}.IsKorean())
	req.True(Language{Code: "en", Reliable: false}.IsKorean())
	req.False(Language{Code: "en", Reliable: true}.IsKorean())
}

func TestDetectLanguage_Hangul(t *testing.T) {
	req := require.New(t)
	lang := DetectLanguage("오늘은 날씨가 좋아서 친구와 함께 공원에서 오래 산책을 했다.")
	req.Equal("ko", lang.Code)
	req.True(lang.IsKorean())
}
