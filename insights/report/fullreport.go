// Package report turns a final analysis and its extracted sections into
// presentation-ready text: markdown blocks, bounded point lists and chart series.
package report

import (
	"regexp"
	"strings"
)

var (
	// separator splits blocks on box-drawing rules anywhere and on markdown rules
	// standing on their own line.
	separator = regexp.MustCompile(`(?m)─+\s*|^[ \t]*(?:-{3,}|_{3,}|={3,})[ \t]*(?:\n|$)`)

	capsHeading     = regexp.MustCompile(`^(?:\d+\.\s*)?([A-ZÁÉÍÓÚÜÑ][A-ZÁÉÍÓÚÜÑ0-9 \t&/,()\-]*[A-ZÁÉÍÓÚÜÑ)])\s*:?\s*$`)
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+(?:\d+\.\s*)?(.+?)\s*#*\s*$`)

	dotBullet    = regexp.MustCompile(`•[ \t]*`)
	dashBullet   = regexp.MustCompile(`(?m)^[ \t]*-[ \t]+`)
	enDashBullet = regexp.MustCompile(`(?m)^[ \t]*–[ \t]*`)
	percentToken = regexp.MustCompile(`(?:\*\*)?(\d+(?:[.,]\d+)?%)(?:\*\*)?`)
	subheadLabel = regexp.MustCompile(`(?m)^([ \t]*(?:\* )?)(\p{L}[\p{L} \t"]{0,60}):([ \t])`)
)

const minTitleRunes = 3

// FormatFullReport splits the raw report on horizontal rules and renders every block
// that opens with a heading as "### TITLE" followed by its normalized content. Blocks
// without a heading are passed through as they are. On an internal failure the input
// is returned unchanged.
func FormatFullReport(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = text
		}
	}()

	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	for _, block := range separator.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		title, content, ok := splitHeading(block)
		if !ok {
			b.WriteString(block)
			b.WriteString("\n\n")
			continue
		}
		b.WriteString("### ")
		b.WriteString(title)
		b.WriteString("\n\n")
		if content != "" {
			b.WriteString(formatContent(content))
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func splitHeading(block string) (title, content string, ok bool) {
	first, rest, _ := strings.Cut(block, "\n")
	first = strings.TrimSpace(first)

	if m := markdownHeading.FindStringSubmatch(first); m != nil {
		title = strings.Trim(m[1], "* ")
	} else if m := capsHeading.FindStringSubmatch(first); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if len([]rune(title)) < minTitleRunes {
		return "", "", false
	}
	return title, strings.TrimSpace(rest), true
}

func formatContent(content string) string {
	content = dotBullet.ReplaceAllString(content, "* ")
	content = enDashBullet.ReplaceAllString(content, "  * ")
	content = dashBullet.ReplaceAllString(content, "* ")
	content = percentToken.ReplaceAllString(content, "**$1**")
	content = subheadLabel.ReplaceAllString(content, "$1**$2:**$3")
	return content
}
