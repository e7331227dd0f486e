package report

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minPointRunes is the length a sentence or line fragment must exceed to count as a
// point.
const minPointRunes = 10

var (
	listLine      = regexp.MustCompile(`(?m)^[ \t]*(?:(\d+)[.)][ \t]+|[-•–][ \t]+|\*[ \t]+)(.*?)[ \t]*$`)
	sentenceBreak = regexp.MustCompile(`[.!?]\s+`)
	bulletPrefix  = regexp.MustCompile(`^[•\-*–][ \t]+`)
)

// KeyPoints reduces text to at most maxPoints points (0 means no limit), trying in
// order: numbered or bulleted lines, sentences, lines. Sentences are used only when
// at least two of them are long enough; fragments of minPointRunes or fewer are
// dropped in both fallback tiers.
func KeyPoints(text string, maxPoints int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	points := listPoints(listLine, text, false)
	if len(points) == 0 {
		if s := longFragments(splitSentences(text)); len(s) >= 2 {
			points = s
		}
	}
	if len(points) == 0 {
		points = longFragments(strings.Split(text, "\n"))
	}
	return limit(points, maxPoints)
}

// NumberedPoints is KeyPoints that keeps list numbering as "N) content". prefix, when
// set, is a literal that must precede the list marker.
func NumberedPoints(text string, maxPoints int, prefix string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	re := listLine
	if prefix != "" {
		re = regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(prefix) + `[ \t]*(?:(\d+)[.)][ \t]+|[-•–][ \t]+|\*[ \t]+)(.*?)[ \t]*$`)
	}
	points := listPoints(re, text, true)
	if len(points) == 0 {
		return KeyPoints(text, maxPoints)
	}
	return limit(points, maxPoints)
}

// FormatKeyPoints renders KeyPoints as "• point" blocks separated by blank lines.
func FormatKeyPoints(text string, maxPoints int) string {
	var b strings.Builder
	for _, p := range KeyPoints(text, maxPoints) {
		b.WriteString("• ")
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	return b.String()
}

func listPoints(re *regexp.Regexp, text string, keepNumbers bool) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		p := cleanPoint(m[2])
		if p == "" {
			continue
		}
		if keepNumbers && m[1] != "" {
			p = m[1] + ") " + p
		}
		out = append(out, p)
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	prev := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		out = append(out, text[prev:loc[0]+1])
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, text[prev:])
	}
	return out
}

func longFragments(in []string) []string {
	var out []string
	for _, s := range in {
		s = cleanPoint(s)
		if utf8.RuneCountInString(s) > minPointRunes {
			out = append(out, s)
		}
	}
	return out
}

func cleanPoint(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(bulletPrefix.ReplaceAllString(s, ""))
}

func limit(points []string, max int) []string {
	if max > 0 && len(points) > max {
		return points[:max]
	}
	return points
}
