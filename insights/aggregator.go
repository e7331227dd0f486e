package insights

import (
	"context"
	"log/slog"
)

// Aggregator reduces the chunk analyses into one final analysis.
type Aggregator struct {
	LLM          LLM
	Params       ModelParams
	SystemPrompt string
	Logger       *slog.Logger
}

// Synthesize issues exactly one LLM call over the surviving chunk analyses. Like
// ChunkAnalyzer.Analyze it reports failure through the returned Analysis.
func (g Aggregator) Synthesize(ctx context.Context, analyses []Analysis, totalComments int) Analysis {
	log := loggerOrDiscard(g.Logger).With("chunks", len(analyses), "comments", totalComments)
	if failed := FailedCount(analyses); failed > 0 {
		log.Warn("chunk analyses failed, excluding them from synthesis", "failed", failed)
	}

	resp, err := callLLM(ctx, g.LLM, g.Params.request(systemPromptOrDefault(g.SystemPrompt), BuildSynthesisInput(analyses, totalComments)))
	if err != nil {
		cerr := &CollaboratorCallError{Stage: StageSynthesis, Err: err}
		log.Error("synthesis failed", "error", cerr.Reason())
		return failedAnalysis(0, cerr)
	}

	log.Info("synthesis done", "total_tokens", resp.TotalTokens, "reasoning_tokens", resp.ReasoningTokens)
	return Analysis{
		Text:            resp.Text,
		ReasoningTokens: resp.ReasoningTokens,
		TotalTokens:     resp.TotalTokens,
	}
}
