package detector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhraseMatcher_Find(t *testing.T) {
	req := require.New(t)
	m, err := NewPhraseMatcher([]string{"수 있습니다", "결론적으로", "이를 바탕으로", "결론적으로"})
	req.NoError(err)
	req.NotNil(m)

	got := m.Find("이를바탕으로 보면... 결론적으로, 개선할 수 있습니다. 결론적으로!")
	req.Equal([]string{"이를 바탕으로", "결론적으로", "수 있습니다"}, got)

	req.Empty(m.Find("평범한 일기입니다"))
	req.Empty(m.Find(""))
}

func TestPhraseMatcher_Empty(t *testing.T) {
	req := require.New(t)
	m, err := NewPhraseMatcher([]string{"", " ", "..."})
	req.NoError(err)
	req.Nil(m)
	req.Nil(m.Find("결론적으로"))
}
