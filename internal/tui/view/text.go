package view

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// WrapFunc wraps text into lines no wider than width cells.
type WrapFunc func(text string, width int) []string

// WrapText word-wraps text to width terminal cells. Words wider than a line are
// split; wide runes (CJK headlines) count as two cells.
func WrapText(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		var line strings.Builder
		lineWidth := 0
		flush := func() {
			out = append(out, line.String())
			line.Reset()
			lineWidth = 0
		}

		words := strings.Fields(paragraph)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		for _, word := range words {
			for runewidth.StringWidth(word) > width {
				if lineWidth > 0 {
					flush()
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					_, size := utf8.DecodeRuneInString(word)
					head = word[:size]
				}
				out = append(out, head)
				word = word[len(head):]
			}
			w := runewidth.StringWidth(word)
			switch {
			case lineWidth == 0:
			case lineWidth+1+w <= width:
				line.WriteByte(' ')
				lineWidth++
			default:
				flush()
			}
			line.WriteString(word)
			lineWidth += w
		}
		if lineWidth > 0 {
			flush()
		}
	}
	return out
}

func truncateRunes(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if maxWidth <= 3 && runewidth.StringWidth(s) > maxWidth {
		return strings.Repeat(".", maxWidth)
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// visibleLen is the rendered width of s, ignoring style escapes.
func visibleLen(s string) int {
	return lipgloss.Width(s)
}

func leftPadLines(lines []string, padding int) []string {
	if padding <= 0 {
		return lines
	}
	prefix := strings.Repeat(" ", padding)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, prefix+line)
	}
	return out
}

// centerLines indents each line so it sits in the middle of width cells.
func centerLines(lines []string, width int) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if gap := width - visibleLen(line); gap > 1 {
			line = strings.Repeat(" ", gap/2) + line
		}
		out = append(out, line)
	}
	return out
}
