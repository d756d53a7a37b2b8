package render

import (
	"strconv"
	"strings"
	"unicode"
)

// wrapText breaks text into lines no wider than width using measure. Explicit
// newlines always break. A single word wider than width gets its own line.
func wrapText(text string, width float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.FieldsFunc(para, unicode.IsSpace)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if width > 0 && measure(candidate) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

// hexColor returns s when it is a #rgb, #rrggbb or #rrggbbaa color and
// fallback otherwise.
func hexColor(s, fallback string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return fallback
	}
	switch len(s) {
	case 4, 7, 9:
	default:
		return fallback
	}
	if _, err := strconv.ParseUint(s[1:], 16, 32); err != nil {
		return fallback
	}
	return s
}

func isBold(weight string) bool {
	w := strings.ToLower(strings.TrimSpace(weight))
	if w == "bold" || w == "bolder" {
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}

func isItalic(style string) bool {
	s := strings.ToLower(style)
	return strings.Contains(s, "italic") || strings.Contains(s, "oblique")
}

func isMonospace(family string) bool {
	f := strings.ToLower(family)
	return strings.Contains(f, "mono") || strings.Contains(f, "courier")
}
