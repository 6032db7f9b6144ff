package pdftext

import "strings"

// Normalize cleans up encoding artifacts common in extracted invoice text:
// BOM markers, CRLF line endings, zero-width characters, and runs of blank
// lines. Non-breaking spaces stay; French amounts use them as grouping
// separators and the patterns accept them. Leading spaces inside a line are
// kept too, since the item classifiers rely on line shape.
func Normalize(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00AD", "") // soft hyphen
	text = strings.ReplaceAll(text, "\u200B", "") // zero-width space

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			line = ""
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
