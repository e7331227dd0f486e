package report

import (
	"regexp"
	"strings"

	"github.com/theimaginaryfoundation/comment-insights/insights/extract"
)

// SectionTitles are the display titles of the report sections.
var SectionTitles = map[extract.SectionKey]string{
	extract.SectionSentiment:       "🔍 SENTIMIENTO GENERAL",
	extract.SectionThemes:          "📊 TEMAS PRINCIPALES",
	extract.SectionStrengths:       "✅ FORTALEZAS DEL PRODUCTO",
	extract.SectionImprovements:    "⚠️ ÁREAS DE MEJORA",
	extract.SectionMarketing:       "📣 OPORTUNIDADES DE MARKETING",
	extract.SectionSegmentation:    "👥 SEGMENTACIÓN DE CLIENTES",
	extract.SectionRecommendations: "🚀 RECOMENDACIONES ACCIONABLES",
}

type SectionBlock struct {
	Key    extract.SectionKey `json:"key"`
	Title  string             `json:"title"`
	Body   string             `json:"body"`
	Points []string           `json:"points"`
}

// Markdown renders the block as a "###" titled markdown section.
func (b SectionBlock) Markdown() string {
	return "### " + b.Title + "\n\n" + b.Body + "\n\n"
}

var (
	numberedMarker = regexp.MustCompile(`(?m)^([ \t]*)(\d+\.)`)
	leadingDash    = regexp.MustCompile(`(?m)^[ \t]*-[ \t]*`)
)

// FormatSections returns one block per non-empty section in report order. Points
// holds at most maxPoints entries (0 means no limit); recommendations keep their
// numbering.
func FormatSections(sections extract.Sections, maxPoints int) []SectionBlock {
	var out []SectionBlock
	for _, k := range extract.SectionKeys {
		text := strings.TrimSpace(sections.Get(k))
		if text == "" {
			continue
		}
		body := numberedMarker.ReplaceAllString(text, "$1**$2**")
		body = leadingDash.ReplaceAllString(body, "• ")
		points := KeyPoints(text, maxPoints)
		if k == extract.SectionRecommendations {
			points = NumberedPoints(text, maxPoints, "")
		}
		out = append(out, SectionBlock{
			Key:    k,
			Title:  SectionTitles[k],
			Body:   body,
			Points: points,
		})
	}
	return out
}

const (
	NoImprovementsMessage    = "No se identificaron áreas específicas de mejora en los comentarios analizados."
	NoRecommendationsMessage = "No hay suficientes datos para generar recomendaciones específicas."
)

// Highlights is the short summary shown before the full report.
type Highlights struct {
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Recommendations []string `json:"recommendations"`
}

// BuildHighlights picks up to 3 strengths, 3 improvements and 5 recommendations.
// Empty improvement and recommendation sections fall back to a fixed message.
func BuildHighlights(sections extract.Sections) Highlights {
	improvements := sections.Get(extract.SectionImprovements)
	if strings.TrimSpace(improvements) == "" {
		improvements = NoImprovementsMessage
	}
	recommendations := sections.Get(extract.SectionRecommendations)
	if strings.TrimSpace(recommendations) == "" {
		recommendations = NoRecommendationsMessage
	}
	return Highlights{
		Strengths:       KeyPoints(sections.Get(extract.SectionStrengths), 3),
		Improvements:    KeyPoints(improvements, 3),
		Recommendations: KeyPoints(recommendations, 5),
	}
}
