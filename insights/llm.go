package insights

import (
	"context"
	"fmt"
	"strings"
)

// LLM is the external reasoning service. Implementations make exactly one request per
// call: no retries, no internal timeout beyond ctx.
type LLM interface {
	Analyze(ctx context.Context, req Request) (Response, error)
}

type ReasoningEffort string

const (
	EffortLow    ReasoningEffort = "low"
	EffortMedium ReasoningEffort = "medium"
	EffortHigh   ReasoningEffort = "high"
)

func ParseReasoningEffort(s string) (ReasoningEffort, error) {
	switch e := ReasoningEffort(strings.ToLower(strings.TrimSpace(s))); e {
	case EffortLow, EffortMedium, EffortHigh:
		return e, nil
	default:
		return "", fmt.Errorf("unknown reasoning effort %q (want low|medium|high)", s)
	}
}

type Request struct {
	SystemPrompt    string
	UserPrompt      string
	Model           string
	ReasoningEffort ReasoningEffort
	MaxOutputTokens int
}

type Response struct {
	Text            string
	ReasoningTokens int
	TotalTokens     int
}

// ModelParams are the per-stage model settings.
type ModelParams struct {
	Model           string          `json:"model"`
	ReasoningEffort ReasoningEffort `json:"reasoning_effort"`
	MaxOutputTokens int             `json:"max_output_tokens"`
}

func (p ModelParams) request(system, user string) Request {
	return Request{
		SystemPrompt:    system,
		UserPrompt:      user,
		Model:           p.Model,
		ReasoningEffort: p.ReasoningEffort,
		MaxOutputTokens: p.MaxOutputTokens,
	}
}
