package extract

import (
	"regexp"
	"strings"
)

type SectionKey string

const (
	SectionSentiment       SectionKey = "sentiment"
	SectionThemes          SectionKey = "themes"
	SectionStrengths       SectionKey = "strengths"
	SectionImprovements    SectionKey = "improvements"
	SectionMarketing       SectionKey = "marketing"
	SectionSegmentation    SectionKey = "segmentation"
	SectionRecommendations SectionKey = "recommendations"
)

// SectionKeys lists the section keys in report order.
var SectionKeys = []SectionKey{
	SectionSentiment,
	SectionThemes,
	SectionStrengths,
	SectionImprovements,
	SectionMarketing,
	SectionSegmentation,
	SectionRecommendations,
}

// Sections maps every SectionKey to its raw text. All keys are always present.
type Sections map[SectionKey]string

func EmptySections() Sections {
	s := make(Sections, len(SectionKeys))
	for _, k := range SectionKeys {
		s[k] = ""
	}
	return s
}

// Get returns the text of a section, "" when missing.
func (s Sections) Get(k SectionKey) string {
	return s[k]
}

// Found counts non-empty sections.
func (s Sections) Found() int {
	n := 0
	for _, v := range s {
		if v != "" {
			n++
		}
	}
	return n
}

// Each pattern accepts the all-caps heading or its numbered form, skips the rest of
// the heading line (or up to the first colon) and captures until a blank line, the
// next numbered heading or the end of text.
var sectionPatterns = map[SectionKey]*regexp.Regexp{
	SectionSentiment:       regexp.MustCompile(`(?is)(?:SENTIMIENTO\s+GENERAL|1\..*?SENTIMIENTO).*?(?:\n|:)(.*?)(?:\n\n|\n[2-7]\.|\z)`),
	SectionThemes:          regexp.MustCompile(`(?is)(?:TEMAS\s+PRINCIPALES|2\..*?TEMAS).*?(?:\n|:)(.*?)(?:\n\n|\n[3-7]\.|\z)`),
	SectionStrengths:       regexp.MustCompile(`(?is)(?:FORTALEZAS\s+DEL\s+PRODUCTO|3\..*?FORTALEZAS).*?(?:\n|:)(.*?)(?:\n\n|\n[4-7]\.|\z)`),
	SectionImprovements:    regexp.MustCompile(`(?is)(?:[ÁA]REAS\s+DE\s+MEJORA|4\..*?MEJORA).*?(?:\n|:)(.*?)(?:\n\n|\n[5-7]\.|\z)`),
	SectionMarketing:       regexp.MustCompile(`(?is)(?:OPORTUNIDADES\s+DE\s+MARKETING|5\..*?MARKETING).*?(?:\n|:)(.*?)(?:\n\n|\n[6-7]\.|\z)`),
	SectionSegmentation:    regexp.MustCompile(`(?is)(?:SEGMENTACI[ÓO]N|6\..*?SEGMENTACI[ÓO]N).*?(?:\n|:)(.*?)(?:\n\n|\n7\.|\z)`),
	SectionRecommendations: regexp.MustCompile(`(?is)(?:RECOMENDACIONES\s+ACCIONABLES|7\..*?RECOMENDACIONES).*?(?:\n|:)(.*?)(?:\n\n|\z)`),
}

func sectionsOf(text string) Sections {
	out := EmptySections()
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, k := range SectionKeys {
		if m := sectionPatterns[k].FindStringSubmatch(text); m != nil {
			out[k] = strings.TrimSpace(m[1])
		}
	}
	return out
}
