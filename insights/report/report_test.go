package report

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/theimaginaryfoundation/comment-insights/insights"
	"github.com/theimaginaryfoundation/comment-insights/insights/extract"
)

func TestKeyPoints_Ladder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{
			name: "numbered_lines",
			text: "1. Revisar precios\n2. Mejorar entregas\n3. Ampliar garantía",
			max:  5,
			want: []string{"Revisar precios", "Mejorar entregas", "Ampliar garantía"},
		},
		{
			name: "bullets_truncated",
			text: "- Primero\n• Segundo\n* Tercero\n- Cuarto",
			max:  3,
			want: []string{"Primero", "Segundo", "Tercero"},
		},
		{
			name: "sentences",
			text: "Los clientes valoran la calidad del producto. El precio se percibe alto! ¿Mejora la entrega? Sí.",
			max:  5,
			want: []string{"Los clientes valoran la calidad del producto.", "El precio se percibe alto!", "¿Mejora la entrega?"},
		},
		{
			name: "lines",
			text: "Calidad percibida muy alta\ncorto\nEntrega lenta en zonas rurales",
			max:  5,
			want: []string{"Calidad percibida muy alta", "Entrega lenta en zonas rurales"},
		},
		{
			name: "exactly_ten_runes_dropped",
			text: "0123456789\nabcdefghijk",
			max:  5,
			want: []string{"abcdefghijk"},
		},
		{
			name: "marker_without_space_is_text",
			text: "-5% de quejas respecto al mes anterior.\n1.5 millones de unidades vendidas este año.",
			max:  5,
			want: []string{"-5% de quejas respecto al mes anterior.", "1.5 millones de unidades vendidas este año."},
		},
		{
			name: "empty",
			text: "   ",
			max:  5,
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := KeyPoints(tc.text, tc.max)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestNumberedPoints_KeepsNumbering(t *testing.T) {
	t.Parallel()

	got := NumberedPoints("Intro\n1. Revisar precios\n2) Mejorar entregas\n- Sin número", 5, "")
	want := []string{"1) Revisar precios", "2) Mejorar entregas", "Sin número"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%q want=%q", got, want)
	}

	got = NumberedPoints("> 1. Citado\n2. No citado", 5, ">")
	if !reflect.DeepEqual(got, []string{"1) Citado"}) {
		t.Fatalf("prefix got=%q", got)
	}

	got = NumberedPoints("> 1.5 millones de unidades vendidas\n> 2. Ampliar garantía", 5, ">")
	if !reflect.DeepEqual(got, []string{"2) Ampliar garantía"}) {
		t.Fatalf("decimal got=%q", got)
	}
}

func TestFormatKeyPoints(t *testing.T) {
	t.Parallel()

	got := FormatKeyPoints("- Durabilidad del material\n- Diseño moderno", 5)
	if want := "• Durabilidad del material\n\n• Diseño moderno\n\n"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
	if got := FormatKeyPoints("", 5); got != "" {
		t.Fatalf("got=%q", got)
	}
}

func TestFormatFullReport(t *testing.T) {
	t.Parallel()

	in := "RESUMEN EJECUTIVO\n• Calidad valorada por el 45% de clientes\n– detalle menor\nTendencia: al alza\n" +
		"────────────\n" +
		"Texto libre sin encabezado 30%\n" +
		"---\n" +
		"## 2. Temas principales\n- Precio (30%)\n"

	got := FormatFullReport(in)

	for _, want := range []string{
		"### RESUMEN EJECUTIVO\n\n",
		"* Calidad valorada por el **45%** de clientes",
		"  * detalle menor",
		"**Tendencia:** al alza",
		"Texto libre sin encabezado 30%\n\n",
		"### Temas principales\n\n* Precio (**30%**)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "─") || strings.Contains(got, "\n---\n") {
		t.Fatalf("separators left in:\n%s", got)
	}
}

func TestFormatFullReport_Idempotent(t *testing.T) {
	t.Parallel()

	once := FormatFullReport("RESUMEN\n- Positivos 40%\n")
	twice := FormatFullReport(once)
	if strings.Count(twice, "**40%**") != 1 || strings.Contains(twice, "****") {
		t.Fatalf("twice=%q", twice)
	}
}

func TestFormatSections_SkipsEmptyAndKeepsOrder(t *testing.T) {
	t.Parallel()

	s := extract.EmptySections()
	s[extract.SectionRecommendations] = "1. Revisar precios\n2. Mejorar entregas"
	s[extract.SectionStrengths] = "- Durabilidad\n- Diseño"

	got := FormatSections(s, 1)
	if len(got) != 2 {
		t.Fatalf("got=%+v", got)
	}
	if got[0].Key != extract.SectionStrengths || got[1].Key != extract.SectionRecommendations {
		t.Fatalf("order=%v,%v", got[0].Key, got[1].Key)
	}
	if got[0].Body != "• Durabilidad\n• Diseño" {
		t.Fatalf("body=%q", got[0].Body)
	}
	if !strings.HasPrefix(got[1].Body, "**1.** Revisar") {
		t.Fatalf("body=%q", got[1].Body)
	}
	if len(got[1].Points) != 1 || got[1].Points[0] != "1) Revisar precios" || got[1].Title != "🚀 RECOMENDACIONES ACCIONABLES" {
		t.Fatalf("block=%+v", got[1])
	}
	if !strings.HasPrefix(got[1].Markdown(), "### 🚀 RECOMENDACIONES ACCIONABLES\n\n") {
		t.Fatalf("markdown=%q", got[1].Markdown())
	}
}

func TestBuildHighlights_Fallbacks(t *testing.T) {
	t.Parallel()

	s := extract.EmptySections()
	s[extract.SectionStrengths] = "- Uno bastante largo\n- Dos bastante largo\n- Tres bastante largo\n- Cuatro bastante largo"

	h := BuildHighlights(s)
	if len(h.Strengths) != 3 {
		t.Fatalf("strengths=%q", h.Strengths)
	}
	if !reflect.DeepEqual(h.Improvements, []string{NoImprovementsMessage}) {
		t.Fatalf("improvements=%q", h.Improvements)
	}
	if !reflect.DeepEqual(h.Recommendations, []string{NoRecommendationsMessage}) {
		t.Fatalf("recommendations=%q", h.Recommendations)
	}
}

func TestThemeRanking(t *testing.T) {
	t.Parallel()

	if got := ThemeRanking([]extract.Theme{{Name: "solo", Percentage: 10}}, 0); got != nil {
		t.Fatalf("single theme got=%v", got)
	}

	in := []extract.Theme{
		{Name: "a", Percentage: 5}, {Name: "b", Percentage: 50}, {Name: "c", Percentage: 5},
		{Name: "d", Percentage: 1}, {Name: "e", Percentage: 2}, {Name: "f", Percentage: 3},
		{Name: "g", Percentage: 4}, {Name: "h", Percentage: 6}, {Name: "i", Percentage: 7},
		{Name: "j", Percentage: 8}, {Name: "k", Percentage: 9},
	}
	got := ThemeRanking(in, 0)
	if len(got) != DefaultThemeLimit {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Name != "b" || got[len(got)-1].Name != "e" {
		t.Fatalf("got=%v", got)
	}
	// stable for ties
	var ties []string
	for _, th := range got {
		if th.Percentage == 5 {
			ties = append(ties, th.Name)
		}
	}
	if !reflect.DeepEqual(ties, []string{"a", "c"}) {
		t.Fatalf("ties=%v", ties)
	}
	if in[0].Name != "a" {
		t.Fatalf("input modified")
	}
}

func TestSentimentSlices(t *testing.T) {
	t.Parallel()

	got := SentimentSlices(extract.Distribution{Positive: 40, Neutral: 25, Negative: 35})
	if len(got) != 3 || got[0].Color != "#4CAF50" || got[2].Value != 35 {
		t.Fatalf("got=%+v", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	text := "1. SENTIMIENTO GENERAL:\nHay 40% positivos, 35% negativos y 25% neutrales.\n\n2. TEMAS PRINCIPALES:\n- Precio (50%)\n- Calidad (30%)\n\n7. RECOMENDACIONES ACCIONABLES:\n1. Revisar la política de precios"
	metrics, sections := extract.Extract(text)
	res := &insights.Result{
		RunID:         "run-1",
		StartedAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		TotalComments: 120,
		ChunkCount:    3,
		FailedChunks:  1,
		Final:         insights.Analysis{Text: text},
		Usage:         insights.TokenUsage{Reasoning: 40, Total: 900},
		Metrics:       metrics,
		Sections:      sections,
	}

	got := RenderMarkdown(res, BuildResult(res, 5))
	for _, want := range []string{
		"- Ejecución: `run-1`",
		"- Grupos analizados: 3 (fallidos: 1)",
		"| Positivo | 40.0% |",
		"| Precio | 50.0% |",
		"**1.** Revisar la política de precios",
		"• " + NoImprovementsMessage,
		"## 🧭 Análisis por secciones",
		"### 📊 TEMAS PRINCIPALES",
		"## 📋 Informe completo",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}

	if noHeader := RenderMarkdown(nil, BuildResult(res, 5)); strings.Contains(noHeader, "Ejecución") {
		t.Fatalf("header rendered without result")
	}
}
