package insights

import (
	"fmt"
	"strings"
)

// DefaultSystemPrompt is sent as the system turn of every call unless replaced via
// configuration.
const DefaultSystemPrompt = `Eres un modelo especializado en analizar el sentimiento de los comentarios de clientes acerca de nuestros productos.
Tu objetivo es extraer insights generales de todos los comentarios, para poder mejorar los productos o realizar campañas de marketing.

Para el análisis general de comentarios, debes:
1. Identificar la distribución de sentimientos (% positivos, negativos, neutrales)
2. Extraer los temas principales mencionados y su frecuencia relativa
3. Identificar patrones comunes de quejas y elogios
4. Destacar oportunidades concretas de mejora de productos
5. Sugerir ideas específicas para campañas de marketing basadas en los comentarios
6. Identificar segmentos de clientes y sus preferencias específicas
7. Detectar tendencias emergentes o preocupaciones crecientes

Proporciona un análisis estructurado, detallado y accionable basado en todos los comentarios.`

const chunkPromptHeader = `Analiza este conjunto de %d comentarios de clientes y proporciona insights preliminares sobre:

1. Distribución aproximada de sentimientos
2. Temas principales mencionados
3. Patrones de quejas o elogios identificados

Comentarios:
`

const synthesisPromptBody = `Basándote en los análisis preliminares de cada grupo, proporciona un informe ejecutivo completo con:

1. SENTIMIENTO GENERAL: Distribución estimada de sentimientos (% positivos, negativos, neutrales) y tendencias principales

2. TEMAS PRINCIPALES: Los 5-7 temas más mencionados, su frecuencia relativa y su relación con el sentimiento

3. FORTALEZAS DEL PRODUCTO: Principales aspectos positivos mencionados por los clientes

4. ÁREAS DE MEJORA: Principales quejas o sugerencias de mejora, ordenadas por frecuencia e impacto

5. OPORTUNIDADES DE MARKETING: 3-5 ideas concretas para campañas de marketing basadas en los comentarios

6. SEGMENTACIÓN: Identificación de diferentes segmentos de clientes según sus preferencias o preocupaciones

7. RECOMENDACIONES ACCIONABLES: 5 recomendaciones concretas y priorizadas para mejorar la satisfacción del cliente

Aquí están los insights preliminares de cada grupo:
`

// BuildChunkPrompt renders the preliminary-analysis request for one chunk.
func BuildChunkPrompt(chunk Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, chunkPromptHeader, len(chunk.Comments))
	for i, c := range chunk.Comments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Comentario %d: %s", i+1, c)
	}
	b.WriteString("\n")
	return b.String()
}

// BuildSynthesisInput renders the final synthesis request. Failed analyses are left
// out; survivors keep the label of their position in the original enumeration, and
// the header reports the original chunk count.
func BuildSynthesisInput(analyses []Analysis, totalComments int) string {
	n := len(analyses)

	var b strings.Builder
	fmt.Fprintf(&b, "Has analizado un total de %d comentarios de clientes en %d grupos.\n\n", totalComments, n)
	b.WriteString(synthesisPromptBody)
	for i, a := range analyses {
		if a.Failed {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n%s\n", GroupLabel(i+1, n), strings.TrimSpace(a.Text))
	}
	return b.String()
}

// GroupLabel is the delimiter line placed before each chunk analysis in the synthesis
// request.
func GroupLabel(index, total int) string {
	return fmt.Sprintf("--- INSIGHTS DEL GRUPO %d de %d ---", index, total)
}
