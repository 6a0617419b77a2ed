package safepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeNameRejectsReserved(t *testing.T) {
	for _, in := range []string{
		"my/folder<name",
		"a>b",
		"c:d",
		`quote"d`,
		`back\slash`,
		"pipe|d",
		"what?",
		"star*",
	} {
		_, err := SanitizeName(in)
		assert.ErrorIs(t, err, ErrInvalidName, "input %q", in)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"notes", "notes"},
		{"  spaced out  ", "spaced out"},
		{"my-folder/sub_dir", "my-folder/sub_dir"},
		{"v1.2", "v12"},
		{"日本語フォルダー", "日本語フォルダー"},
		{"ひらがな カタカナ", "ひらがな カタカナ"},
		{"emoji😀name", "emojiname"},
		{"a;b&c#d", "abcd"},
		{"../..", "/"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		got, err := SanitizeName(tt.in)
		if assert.NoError(t, err, tt.in) {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestValidateFileName(t *testing.T) {
	for _, ok := range []string{"a.txt", "report v2.final.md", "日本.png", ".hidden"} {
		assert.NoError(t, ValidateFileName(ok), ok)
	}
	for _, bad := range []string{"", " ", ".", "..", "a/b", "a<b", "x?.txt", "c:\\x", "50%.txt"} {
		assert.ErrorIs(t, ValidateFileName(bad), ErrInvalidName, bad)
	}
}
