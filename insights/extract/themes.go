package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type Theme struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

var (
	// themesSpan finds the "temas principales" / "aspectos más mencionados" heading and
	// captures its body up to a blank line, the next numbered all-caps heading, a bare
	// all-caps heading or the end of text. Numbered theme items stay in the span.
	themesSpan = regexp.MustCompile(`(?s)(?i:temas|aspectos)(?i:\s+principales|\s+m[áa]s\s+mencionados).*?(?::|\n)(.*?)(?:\n[ \t]*\n|\n[ \t]*\d+\.[ \t]*[A-ZÁÉÍÓÚÑ]{4,}|\n[A-ZÁÉÍÓÚÑ]{4,}|\z)`)
	themeItem  = regexp.MustCompile(`(\p{L}[\p{L}\s]*)(?:\s*\(\s*(\d+(?:[.,]\d+)?)\s*%\s*\))?`)
)

func themesOf(text string) []Theme {
	out := []Theme{}
	m := themesSpan.FindStringSubmatch(text)
	if m == nil {
		return out
	}
	for _, item := range themeItem.FindAllStringSubmatch(m[1], -1) {
		name := strings.Join(strings.Fields(item[1]), " ")
		if utf8.RuneCountInString(name) <= 2 {
			continue
		}
		pct := 0.0
		if item[2] != "" {
			if v, ok := parsePercent(item[2]); ok {
				pct = v
			}
		}
		out = append(out, Theme{Name: name, Percentage: pct})
	}
	return out
}
