package journal

import (
	"fmt"
	"strings"

	"github.com/creastat/aura"
)

// Format is a text formatting action applied to a selection.
type Format string

const (
	FormatBold   Format = "bold"
	FormatItalic Format = "italic"
	FormatBullet Format = "bullet"
)

// Placeholders inserted when formatting an empty selection.
const (
	boldPlaceholder   = "bold text"
	italicPlaceholder = "italic text"
	bulletPlaceholder = "bullet point"
)

// InsertText replaces the selection [start, end) of content with text and
// returns the new content and the cursor position after the inserted text.
// Offsets are in characters and are clamped to the content.
func InsertText(content string, start, end int, text string) (string, int) {
	runes := []rune(content)
	start, end = clampSelection(len(runes), start, end)

	var b strings.Builder
	b.WriteString(string(runes[:start]))
	b.WriteString(text)
	b.WriteString(string(runes[end:]))

	return b.String(), start + len([]rune(text))
}

// FormatText applies format to the selection [start, end) of content.
func FormatText(content string, start, end int, format Format) (string, int, error) {
	runes := []rune(content)
	start, end = clampSelection(len(runes), start, end)
	selected := string(runes[start:end])

	var formatted string
	switch format {
	case FormatBold:
		formatted = "**" + orDefault(selected, boldPlaceholder) + "**"
	case FormatItalic:
		formatted = "*" + orDefault(selected, italicPlaceholder) + "*"
	case FormatBullet:
		lines := strings.Split(orDefault(selected, bulletPlaceholder), "\n")
		for i, line := range lines {
			if line = strings.TrimSpace(line); line != "" {
				lines[i] = "• " + line
			} else {
				lines[i] = "•"
			}
		}
		formatted = strings.Join(lines, "\n")
	default:
		return "", 0, fmt.Errorf("%w: unknown format %q", aura.ErrInvalidInput, format)
	}

	out, cursor := InsertText(content, start, end, formatted)
	return out, cursor, nil
}

func clampSelection(n, start, end int) (int, int) {
	start = min(max(start, 0), n)
	end = min(max(end, start), n)
	return start, end
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
