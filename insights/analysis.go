package insights

// Analysis is the outcome of one LLM call: a chunk analysis or the final synthesis.
// A failed analysis carries "Error: <reason>" as Text, zero token counts and the
// typed error in Err.
type Analysis struct {
	Chunk           int    `json:"chunk,omitempty"`
	Text            string `json:"text"`
	ReasoningTokens int    `json:"reasoning_tokens"`
	TotalTokens     int    `json:"total_tokens"`
	Failed          bool   `json:"failed,omitempty"`
	Err             error  `json:"-"`
}

func failedAnalysis(chunk int, err *CollaboratorCallError) Analysis {
	return Analysis{
		Chunk:  chunk,
		Text:   "Error: " + err.Reason(),
		Failed: true,
		Err:    err,
	}
}

type TokenUsage struct {
	Reasoning int `json:"reasoning"`
	Total     int `json:"total"`
}

func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{Reasoning: u.Reasoning + o.Reasoning, Total: u.Total + o.Total}
}

// Usage is the token usage of a single analysis. Failed analyses report zero.
func (a Analysis) Usage() TokenUsage {
	if a.Failed {
		return TokenUsage{}
	}
	return TokenUsage{Reasoning: a.ReasoningTokens, Total: a.TotalTokens}
}

// SumTokens adds the token usage of all non-failed analyses.
func SumTokens(analyses ...Analysis) TokenUsage {
	var u TokenUsage
	for _, a := range analyses {
		u = u.Add(a.Usage())
	}
	return u
}

// FailedCount reports how many analyses failed.
func FailedCount(analyses []Analysis) int {
	n := 0
	for _, a := range analyses {
		if a.Failed {
			n++
		}
	}
	return n
}
