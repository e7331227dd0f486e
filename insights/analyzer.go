package insights

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ChunkAnalyzer asks the LLM for a preliminary analysis of one chunk.
type ChunkAnalyzer struct {
	LLM          LLM
	Params       ModelParams
	SystemPrompt string
	Logger       *slog.Logger
}

// Analyze issues exactly one LLM call. It never returns an error: failures come back
// as a failed Analysis so the pipeline can carry on with the remaining chunks.
func (a ChunkAnalyzer) Analyze(ctx context.Context, chunk Chunk) Analysis {
	log := loggerOrDiscard(a.Logger).With("chunk", chunk.Number, "comments", len(chunk.Comments))
	log.Info("analyzing chunk")

	resp, err := callLLM(ctx, a.LLM, a.Params.request(systemPromptOrDefault(a.SystemPrompt), BuildChunkPrompt(chunk)))
	if err != nil {
		cerr := &CollaboratorCallError{Stage: StageChunk, Chunk: chunk.Number, Err: err}
		log.Error("chunk analysis failed", "error", cerr.Reason())
		return failedAnalysis(chunk.Number, cerr)
	}

	log.Info("chunk analysis done", "total_tokens", resp.TotalTokens, "reasoning_tokens", resp.ReasoningTokens)
	return Analysis{
		Chunk:           chunk.Number,
		Text:            resp.Text,
		ReasoningTokens: resp.ReasoningTokens,
		TotalTokens:     resp.TotalTokens,
	}
}

func callLLM(ctx context.Context, llm LLM, req Request) (Response, error) {
	if llm == nil {
		return Response{}, errors.New("llm is nil")
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	resp, err := llm.Analyze(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return Response{}, ErrEmptyResponse
	}
	return resp, nil
}

func systemPromptOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return DefaultSystemPrompt
	}
	return s
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
