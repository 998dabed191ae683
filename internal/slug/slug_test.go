package slug

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestNameToSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"cyrillic with punctuation", "Привет Мир!", "privet-mir"},
		{"spaces and hyphens", "  Multiple   Spaces--Here  ", "multiple-spaces-here"},
		{"multi letter mapping", "Щука и ёж", "schuka-i-yozh"},
		{"soft and hard signs vanish", "Объявление Ночь", "obyavlenie-noch"},
		{"mixed alphabets", "Go 1.23 вышел", "go-123-vyshel"},
		{"hyphen surrounded by spaces", "a - b", "a-b"},
		{"symbols removed without separator", "c++/c#", "cc"},
		{"tabs and newlines", "one\ttwo\nthree", "one-two-three"},
		{"only symbols", "!!! ??? ...", ""},
		{"empty", "", ""},
		{"non mapped letters dropped", "Ünïcödé café", "ncd-caf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NameToSlug(tt.in))
		})
	}
}

func TestNameToSlugTruncates(t *testing.T) {
	long := strings.Repeat("слово ", 40)

	got := NameToSlug(long)

	require.LessOrEqual(t, len(got), MaxLength)
	require.Regexp(t, slugPattern, got)
	assert.True(t, strings.HasPrefix(got, "slovo-slovo-"))
}

func TestNameToSlugTruncationNeverEndsWithHyphen(t *testing.T) {
	// 99 letters followed by a separator puts the hyphen at index 99.
	name := strings.Repeat("a", 99) + " tail"

	got := NameToSlug(name)

	assert.Equal(t, strings.Repeat("a", 99), got)
}

func TestNameToSlugShape(t *testing.T) {
	inputs := []string{
		"Как заработать на Go в 2024 году?",
		"  -- leading and trailing --  ",
		"UPPER lower ЁЖИК",
		"числа 123 и буквы abc",
		"Съешь же ещё этих мягких французских булок, да выпей чаю",
		"a-b-c---d   e",
	}

	for _, in := range inputs {
		got := NameToSlug(in)
		require.LessOrEqual(t, len(got), MaxLength, in)
		if got != "" {
			require.Regexp(t, slugPattern, got, in)
		}
	}
}
