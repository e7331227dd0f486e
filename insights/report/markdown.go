package report

import (
	"fmt"
	"strings"

	"github.com/theimaginaryfoundation/comment-insights/insights"
	"github.com/theimaginaryfoundation/comment-insights/insights/extract"
)

// Document is the presentation-ready form of a run.
type Document struct {
	Highlights Highlights      `json:"highlights"`
	Sections   []SectionBlock  `json:"sections"`
	Sentiment  []Slice         `json:"sentiment"`
	Themes     []extract.Theme `json:"themes"`
	FullReport string          `json:"full_report"`
}

// Build assembles the presentation structures for a final analysis text and what
// was extracted from it.
func Build(text string, metrics extract.Metrics, sections extract.Sections, maxPoints int) Document {
	return Document{
		Highlights: BuildHighlights(sections),
		Sections:   FormatSections(sections, maxPoints),
		Sentiment:  SentimentSlices(metrics.Sentiment),
		Themes:     ThemeRanking(metrics.Themes, DefaultThemeLimit),
		FullReport: FormatFullReport(text),
	}
}

// BuildResult is Build over a pipeline result.
func BuildResult(res *insights.Result, maxPoints int) Document {
	return Build(res.Final.Text, res.Metrics, res.Sections, maxPoints)
}

// RenderMarkdown renders the exported markdown report. The run summary header is
// left out when res is nil.
func RenderMarkdown(res *insights.Result, doc Document) string {
	var b strings.Builder
	b.WriteString("# Análisis de comentarios\n\n")
	if res != nil {
		writeRunSummary(&b, res)
	}

	b.WriteString("## Distribución de sentimientos\n\n| Sentimiento | Porcentaje |\n|---|---|\n")
	for _, s := range doc.Sentiment {
		fmt.Fprintf(&b, "| %s | %.1f%% |\n", s.Label, s.Value)
	}
	b.WriteString("\n")

	if len(doc.Themes) > 0 {
		b.WriteString("## Temas principales\n\n| Tema | Porcentaje |\n|---|---|\n")
		for _, t := range doc.Themes {
			fmt.Fprintf(&b, "| %s | %.1f%% |\n", t.Name, t.Percentage)
		}
		b.WriteString("\n")
	}

	b.WriteString("## 🔍 Principales hallazgos\n\n")
	writeList(&b, "✅ Fortalezas", doc.Highlights.Strengths, false)
	writeList(&b, "⚠️ Áreas de mejora", doc.Highlights.Improvements, false)
	writeList(&b, "🚀 Recomendaciones clave", doc.Highlights.Recommendations, true)

	if len(doc.Sections) > 0 {
		b.WriteString("## 🧭 Análisis por secciones\n\n")
		for _, sec := range doc.Sections {
			b.WriteString(sec.Markdown())
		}
	}

	b.WriteString("## 📋 Informe completo\n\n")
	b.WriteString(doc.FullReport)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeRunSummary(b *strings.Builder, res *insights.Result) {
	fmt.Fprintf(b, "- Ejecución: `%s`\n", res.RunID)
	fmt.Fprintf(b, "- Fecha: %s\n", res.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(b, "- Total de comentarios: %d\n", res.TotalComments)
	fmt.Fprintf(b, "- Grupos analizados: %d (fallidos: %d)\n", res.ChunkCount, res.FailedChunks)
	fmt.Fprintf(b, "- Tokens de razonamiento: %d\n", res.Usage.Reasoning)
	fmt.Fprintf(b, "- Total de tokens: %d\n\n", res.Usage.Total)
}

func writeList(b *strings.Builder, title string, points []string, numbered bool) {
	if len(points) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n\n", title)
	for i, p := range points {
		if numbered {
			fmt.Fprintf(b, "**%d.** %s\n", i+1, p)
		} else {
			fmt.Fprintf(b, "• %s\n", p)
		}
	}
	b.WriteString("\n")
}
