package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/theimaginaryfoundation/comment-insights/insights"
	"github.com/theimaginaryfoundation/comment-insights/insights/fileutils"
	"github.com/theimaginaryfoundation/comment-insights/insights/provider"
	"github.com/theimaginaryfoundation/comment-insights/insights/report"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	titleColor   = color.New(color.FgMagenta, color.Bold)
)

// console writes human-facing progress and summaries. It is kept off stdout so the
// key=value summary line stays machine readable.
type console struct {
	w io.Writer
}

func (c console) title(format string, args ...any) {
	titleColor.Fprintf(c.w, "🎯 "+format+"\n", args...)
}

func (c console) success(format string, args ...any) {
	successColor.Fprintf(c.w, "✅ "+format+"\n", args...)
}

func (c console) warning(format string, args ...any) {
	warningColor.Fprintf(c.w, "⚠️  "+format+"\n", args...)
}

func (c console) fail(format string, args ...any) {
	errorColor.Fprintf(c.w, "❌ "+format+"\n", args...)
}

func (c console) info(format string, args ...any) {
	infoColor.Fprintf(c.w, "ℹ️  "+format+"\n", args...)
}

func (c console) separator() {
	fmt.Fprintln(c.w, strings.Repeat("─", 80))
}

// progressObserver prints a line when a chunk is sent and another when it is back.
type progressObserver struct {
	out console
}

var _ insights.Observer = progressObserver{}

func (p progressObserver) ChunkStarted(n, total int) {
	infoColor.Fprintf(p.out.w, "📊 [%d/%d] Analizando grupo %d de %d\n", n, total, n, total)
}

func (p progressObserver) ChunkAnalyzed(done, total int, a insights.Analysis) {
	if a.Failed {
		p.out.warning("[%d/%d] Grupo %d falló: %s", done, total, a.Chunk, fileutils.Truncate(a.Text, 160))
		if provider.IsRateLimitError(a.Err) {
			p.out.info("Límite de peticiones alcanzado; prueba con --rpm para espaciar las llamadas")
		}
		return
	}
	p.out.success("[%d/%d] Grupo %d analizado (%d tokens)", done, total, a.Chunk, a.TotalTokens)
}

func (p progressObserver) SynthesisDone(a insights.Analysis) {
	if a.Failed {
		p.out.fail("Síntesis fallida: %s", fileutils.Truncate(a.Text, 160))
		return
	}
	p.out.success("Síntesis completada (%d tokens)", a.TotalTokens)
}

func (c console) summary(res *insights.Result, doc report.Document) {
	c.separator()
	c.title("Métricas de uso")
	c.info("Comentarios analizados: %d en %d grupos", res.TotalComments, res.ChunkCount)
	if res.FailedChunks > 0 {
		c.warning("Grupos fallidos: %d de %d", res.FailedChunks, res.ChunkCount)
	} else {
		c.info("Grupos fallidos: 0")
	}
	c.info("Tokens de razonamiento: %d", res.Usage.Reasoning)
	c.info("Total de tokens: %d", res.Usage.Total)
	c.info("Duración: %s", res.Duration().Round(time.Second))
	if !res.Succeeded() {
		return
	}

	c.separator()
	c.title("Principales hallazgos")
	c.points("Fortalezas", doc.Highlights.Strengths)
	c.points("Áreas de mejora", doc.Highlights.Improvements)
	c.points("Recomendaciones clave", doc.Highlights.Recommendations)
}

func (c console) points(title string, points []string) {
	successColor.Fprintf(c.w, "%s\n", title)
	for _, p := range points {
		fmt.Fprintf(c.w, "  • %s\n", p)
	}
}
