package report

import "strings"

type measurer interface {
	GetStringWidth(s string) float64
}

// wrapText breaks text into lines no wider than width. Paragraph breaks are
// kept, and a word wider than width is split between characters.
func wrapText(m measurer, text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, word := range words {
			candidate := word
			if cur != "" {
				candidate = cur + " " + word
			}
			if m.GetStringWidth(candidate) <= width {
				cur = candidate
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
			}
			for word != "" && m.GetStringWidth(word) > width {
				var head string
				head, word = splitAtWidth(m, word, width)
				lines = append(lines, head)
			}
			cur = word
		}
		if cur != "" {
			lines = append(lines, cur)
		}
	}
	return lines
}

// splitAtWidth returns the longest prefix of word that fits in width and
// the rest. The prefix holds at least one character.
func splitAtWidth(m measurer, word string, width float64) (string, string) {
	cut := 0
	for i := range word {
		if i == 0 {
			continue
		}
		if m.GetStringWidth(word[:i]) > width {
			break
		}
		cut = i
	}
	if cut == 0 {
		cut = len(word)
		for i := range word {
			if i > 0 {
				cut = i
				break
			}
		}
	}
	return word[:cut], word[cut:]
}
