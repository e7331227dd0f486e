// Package extract mines the prose of a final analysis for a sentiment split, a theme
// list and the seven report sections. Every entry point is fail-soft: on an internal
// error it logs an *ExtractionError and returns the documented default.
package extract

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Metrics is the chartable part of an analysis.
type Metrics struct {
	Sentiment Distribution `json:"sentiment"`
	Themes    []Theme      `json:"themes"`
}

// ExtractionError describes a recovered internal failure. It is only ever logged.
type ExtractionError struct {
	Op    string
	Cause any
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Op, e.Cause)
}

// Extractor runs the extraction functions, logging recovered failures to Logger
// (slog.Default when nil). The zero value is ready to use.
type Extractor struct {
	Logger *slog.Logger
}

func (x Extractor) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.Default()
	}
	return x.Logger
}

// recoverTo turns a panic inside op into a logged ExtractionError and stores the
// fallback in *out.
func recoverTo[T any](log *slog.Logger, op string, out *T, fallback func() T) {
	r := recover()
	if r == nil {
		return
	}
	err := &ExtractionError{Op: op, Cause: r}
	log.Warn("extraction failed, using defaults", "error", err.Error(), "stack", string(debug.Stack()))
	*out = fallback()
}

func (x Extractor) Sentiment(text string) (d Distribution) {
	defer recoverTo(x.logger(), "sentiment", &d, DefaultDistribution)
	return sentiment(text)
}

func (x Extractor) Themes(text string) (themes []Theme) {
	defer recoverTo(x.logger(), "themes", &themes, func() []Theme { return []Theme{} })
	return themesOf(text)
}

func (x Extractor) Sections(text string) (s Sections) {
	defer recoverTo(x.logger(), "sections", &s, EmptySections)
	return sectionsOf(text)
}

// Extract runs all three extractions over text.
func (x Extractor) Extract(text string) (Metrics, Sections) {
	return Metrics{Sentiment: x.Sentiment(text), Themes: x.Themes(text)}, x.Sections(text)
}

func Sentiment(text string) Distribution { return Extractor{}.Sentiment(text) }

func Themes(text string) []Theme { return Extractor{}.Themes(text) }

func SectionsOf(text string) Sections { return Extractor{}.Sections(text) }

func Extract(text string) (Metrics, Sections) { return Extractor{}.Extract(text) }
