package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultTokenList(t *testing.T) {
	req := require.New(t)
	list := DefaultTokenList()
	req.Contains(list.Tokens, "따라서")
	req.Contains(list.Tokens, "결론적으로")
	req.Contains(list.Phrases, "수 있습니다")

	// Callers get their own copy.
	list.Tokens[0] = "changed"
	req.NotEqual("changed", DefaultTokenList().Tokens[0])
}

func TestEnsureAndLoadTokenFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config", "tokens.json")

	req.NoError(EnsureTokenFile(path))
	req.FileExists(path)

	list, fromFile, err := LoadTokenList(path)
	req.NoError(err)
	req.True(fromFile)
	req.Equal(DefaultTokenList(), list)

	// An existing file is left untouched.
	req.NoError(os.WriteFile(path, []byte(`{"tokens": [" 그래서 ", "그래서", ""]}`), 0o644))
	req.NoError(EnsureTokenFile(path))
	list, _, err = LoadTokenList(path)
	req.NoError(err)
	req.Equal([]string{"그래서"}, list.Tokens)
	req.Equal(DefaultTokenList().Phrases, list.Phrases)
}

func TestLoadTokenList_Errors(t *testing.T) {
	req := require.New(t)

	list, fromFile, err := LoadTokenList("")
	req.NoError(err)
	req.False(fromFile)
	req.Equal(DefaultTokenList(), list)

	_, _, err = LoadTokenList(filepath.Join(t.TempDir(), "missing.json"))
	req.ErrorIs(err, os.ErrNotExist)

	broken := filepath.Join(t.TempDir(), "broken.json")
	req.NoError(os.WriteFile(broken, []byte("{"), 0o644))
	_, _, err = LoadTokenList(broken)
	req.ErrorContains(err, "decode token file")
}
