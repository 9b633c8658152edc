package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// runeWidth measures one unit per byte.
type runeWidth struct{}

func (runeWidth) GetStringWidth(s string) float64 { return float64(len(s)) }

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"fits", "short line", 20, []string{"short line"}},
		{"greedy", "the quick brown fox jumps", 10, []string{"the quick", "brown fox", "jumps"}},
		{"paragraphs", "one\n\ntwo", 10, []string{"one", "", "two"}},
		{"long word", "abcdefghij xy", 4, []string{"abcd", "efgh", "ij", "xy"}},
		{"long word after text", "ab abcdefgh", 5, []string{"ab", "abcde", "fgh"}},
		{"collapses spaces", "a    b", 10, []string{"a b"}},
		{"crlf", "a\r\nb", 10, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(runeWidth{}, tt.text, tt.width))
		})
	}
}

func TestWrapTextRespectsWidth(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet consectetur ", 20)
	for _, line := range wrapText(runeWidth{}, text, 17) {
		assert.LessOrEqual(t, len(line), 17)
	}
}

func TestWrapTextOverwideCharacter(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, wrapText(runeWidth{}, "ab", 0.5))
}
