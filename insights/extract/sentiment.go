package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Distribution is a three-way sentiment split in percent. After construction it sums
// to 100 or equals DefaultDistribution.
type Distribution struct {
	Positive float64 `json:"Positivo"`
	Neutral  float64 `json:"Neutral"`
	Negative float64 `json:"Negativo"`
}

func DefaultDistribution() Distribution {
	return Distribution{Positive: 60, Neutral: 25, Negative: 15}
}

func (d Distribution) Sum() float64 {
	return d.Positive + d.Neutral + d.Negative
}

// Normalize rescales d so it sums to 100. A zero sum yields DefaultDistribution.
func (d Distribution) Normalize() Distribution {
	d.Positive = nonNegative(d.Positive)
	d.Neutral = nonNegative(d.Neutral)
	d.Negative = nonNegative(d.Negative)

	sum := d.Sum()
	if sum == 0 {
		return DefaultDistribution()
	}
	if sum == 100 {
		return d
	}
	factor := 100 / sum
	return Distribution{
		Positive: d.Positive * factor,
		Neutral:  d.Neutral * factor,
		Negative: d.Negative * factor,
	}
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Category word families. Whole-word matches only, so "desfavorables" is never read
// as positive.
var (
	positiveWords = regexp.MustCompile(`(?i)\b(?:positiv[oa]s?|favorables?|positive)\b`)
	negativeWords = regexp.MustCompile(`(?i)\b(?:negativ[oa]s?|desfavorables?|negative)\b`)
	neutralWords  = regexp.MustCompile(`(?i)\b(?:neutral(?:es)?|neutr[oa]s?)\b`)
	anyCategory   = regexp.MustCompile(`(?i)^[ \t]*(?:` + connectorWords + `[ \t]+)*(?:positiv[oa]s?|favorables?|positive|negativ[oa]s?|desfavorables?|negative|neutral(?:es)?|neutr[oa]s?)\b`)
)

// connectorWords may sit between a percentage and the category word it qualifies,
// as in "40% de comentarios positivos".
const connectorWords = `(?:de|del|los|las|el|la|un|una|comentarios|opiniones|reseñas|respuestas|clientes|usuarios|son|fueron|es|fue|con|sentimiento|sentimientos|tono|of|the|comments|reviews|are|were|is)`

var (
	// percentBefore matches a percentage written right before the category word on
	// the same line, with no list separator in between.
	percentBefore = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)[ \t]*%[ \t:]*(?:` + connectorWords + `[ \t]+){0,4}$`)
	// percentAfter matches the first percentage after the category word with no other
	// digits in between.
	percentAfter = regexp.MustCompile(`^\D*?(\d+(?:[.,]\d+)?)\s*%`)
)

// lookbehind bounds how much text before a category word is searched.
const lookbehind = 80

func sentiment(text string) Distribution {
	d := Distribution{
		Positive: firstMention(text, positiveWords),
		Neutral:  firstMention(text, neutralWords),
		Negative: firstMention(text, negativeWords),
	}
	return d.Normalize()
}

// firstMention returns the percentage attached to the first occurrence of a word
// from family that has one. Later mentions are ignored.
func firstMention(text string, family *regexp.Regexp) float64 {
	for _, loc := range family.FindAllStringIndex(text, -1) {
		if v, ok := percentBeforeWord(text[:loc[0]]); ok {
			return v
		}
		if v, ok := percentAfterWord(text[loc[1]:]); ok {
			return v
		}
	}
	return 0
}

func percentBeforeWord(before string) (float64, bool) {
	if len(before) > lookbehind {
		start := len(before) - lookbehind
		for start < len(before) && !isRuneStart(before[start]) {
			start++
		}
		before = before[start:]
	}
	m := percentBefore.FindStringSubmatch(before)
	if m == nil {
		return 0, false
	}
	return parsePercent(m[1])
}

func percentAfterWord(after string) (float64, bool) {
	m := percentAfter.FindStringSubmatchIndex(after)
	if m == nil {
		return 0, false
	}
	// "positivos, 30% neutrales": the 30% belongs to the category word that follows it
	// on the same line. A word on the next line or after a separator does not claim it.
	if anyCategory.MatchString(after[m[1]:]) {
		return 0, false
	}
	return parsePercent(after[m[2]:m[3]])
}

func parsePercent(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
