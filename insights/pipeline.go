package insights

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/theimaginaryfoundation/comment-insights/insights/extract"
)

// Observer is told about progress as a run advances. Calls happen on the goroutine
// running Pipeline.Run, in order.
type Observer interface {
	ChunkStarted(n, total int)
	ChunkAnalyzed(done, total int, a Analysis)
	SynthesisDone(a Analysis)
}

// Pipeline runs the chunked map-reduce analysis: partition, one preliminary analysis
// per chunk, one synthesis, then extraction over the synthesis text.
type Pipeline struct {
	LLM             LLM
	ChunkParams     ModelParams
	SynthesisParams ModelParams
	SystemPrompt    string
	ChunkSize       int
	MaxComments     int

	Extractor extract.Extractor
	Observer  Observer
	Logger    *slog.Logger
	Now       func() time.Time
}

// Result is everything a run produced. It is returned even when synthesis fails so
// callers can report what happened.
type Result struct {
	RunID           string           `json:"run_id"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	ChunkParams     ModelParams      `json:"chunk_params"`
	SynthesisParams ModelParams      `json:"synthesis_params"`
	TotalComments   int              `json:"total_comments"`
	ChunkCount      int              `json:"chunk_count"`
	FailedChunks    int              `json:"failed_chunks"`
	ChunkAnalyses   []Analysis       `json:"chunk_analyses"`
	Final           Analysis         `json:"final"`
	Usage           TokenUsage       `json:"usage"`
	Metrics         extract.Metrics  `json:"metrics"`
	Sections        extract.Sections `json:"sections"`
}

// Succeeded reports whether the synthesis produced a usable report.
func (r *Result) Succeeded() bool {
	return r != nil && r.Final.Text != "" && !r.Final.Failed
}

func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Run partitions comments and analyzes them sequentially. It fails fast with an
// *InvalidInputError when nothing is left to analyze. A failed synthesis returns the
// partial Result together with its *CollaboratorCallError (errors.Is ErrSynthesisFailed).
func (p Pipeline) Run(ctx context.Context, comments []string) (*Result, error) {
	chunks, err := Partition(comments, p.ChunkSize, p.MaxComments)
	if err != nil {
		return nil, err
	}

	now := p.Now
	if now == nil {
		now = time.Now
	}
	log := loggerOrDiscard(p.Logger)

	res := &Result{
		RunID:           uuid.NewString(),
		StartedAt:       now(),
		ChunkParams:     p.ChunkParams,
		SynthesisParams: p.SynthesisParams,
		TotalComments:   CountComments(chunks),
		ChunkCount:      len(chunks),
		ChunkAnalyses:   make([]Analysis, 0, len(chunks)),
	}
	log = log.With("run_id", res.RunID)
	log.Info("analysis started", "comments", res.TotalComments, "chunks", res.ChunkCount)

	analyzer := ChunkAnalyzer{LLM: p.LLM, Params: p.ChunkParams, SystemPrompt: p.SystemPrompt, Logger: log}
	for i, chunk := range chunks {
		if p.Observer != nil {
			p.Observer.ChunkStarted(i+1, len(chunks))
		}
		a := analyzer.Analyze(ctx, chunk)
		res.ChunkAnalyses = append(res.ChunkAnalyses, a)
		if a.Failed {
			res.FailedChunks++
		}
		if p.Observer != nil {
			p.Observer.ChunkAnalyzed(i+1, len(chunks), a)
		}
	}

	aggregator := Aggregator{LLM: p.LLM, Params: p.SynthesisParams, SystemPrompt: p.SystemPrompt, Logger: log}
	res.Final = aggregator.Synthesize(ctx, res.ChunkAnalyses, res.TotalComments)
	res.Usage = SumTokens(append(res.ChunkAnalyses[:len(res.ChunkAnalyses):len(res.ChunkAnalyses)], res.Final)...)
	if p.Observer != nil {
		p.Observer.SynthesisDone(res.Final)
	}

	if res.Final.Failed {
		res.Sections = extract.EmptySections()
		res.Metrics = extract.Metrics{Sentiment: extract.DefaultDistribution(), Themes: []extract.Theme{}}
		res.FinishedAt = now()
		return res, res.Final.Err
	}

	res.Metrics, res.Sections = p.Extractor.Extract(res.Final.Text)
	res.FinishedAt = now()
	log.Info("analysis finished",
		"failed_chunks", res.FailedChunks,
		"total_tokens", res.Usage.Total,
		"reasoning_tokens", res.Usage.Reasoning,
		"sections_found", res.Sections.Found(),
		"themes", len(res.Metrics.Themes),
	)
	return res, nil
}
