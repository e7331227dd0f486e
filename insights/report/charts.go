package report

import (
	"sort"

	"github.com/theimaginaryfoundation/comment-insights/insights/extract"
)

// Slice is one wedge of the sentiment pie.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

var SentimentColors = map[string]string{
	"Positivo": "#4CAF50",
	"Neutral":  "#FFC107",
	"Negativo": "#F44336",
}

func SentimentSlices(d extract.Distribution) []Slice {
	return []Slice{
		{Label: "Positivo", Value: d.Positive, Color: SentimentColors["Positivo"]},
		{Label: "Neutral", Value: d.Neutral, Color: SentimentColors["Neutral"]},
		{Label: "Negativo", Value: d.Negative, Color: SentimentColors["Negativo"]},
	}
}

// DefaultThemeLimit is how many themes ThemeRanking keeps when limit is 0.
const DefaultThemeLimit = 10

// ThemeRanking sorts themes by percentage, highest first, and keeps the top limit.
// It returns nil when there are fewer than two themes to compare. The input is not
// modified.
func ThemeRanking(themes []extract.Theme, limit int) []extract.Theme {
	if len(themes) < 2 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultThemeLimit
	}
	out := make([]extract.Theme, len(themes))
	copy(out, themes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
