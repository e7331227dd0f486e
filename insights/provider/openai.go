package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"golang.org/x/time/rate"

	"github.com/theimaginaryfoundation/comment-insights/insights"
)

type Options struct {
	APIKey  string
	BaseURL string
	// RequestsPerMinute paces calls client-side. 0 disables pacing.
	RequestsPerMinute int
}

// OpenAI implements insights.LLM on the Responses API. Each Analyze call is a single
// request: the client is built with retries disabled.
type OpenAI struct {
	client  *openai.Client
	limiter *rate.Limiter
}

var _ insights.LLM = (*OpenAI)(nil)

func NewOpenAI(opts Options) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai: missing api key")
	}
	if opts.RequestsPerMinute < 0 {
		return nil, errors.New("openai: requests per minute must be >= 0")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(reqOpts...)

	p := &OpenAI{client: &client}
	if opts.RequestsPerMinute > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60), 1)
	}
	return p, nil
}

func (p *OpenAI) Analyze(ctx context.Context, req insights.Request) (insights.Response, error) {
	if p == nil || p.client == nil {
		return insights.Response{}, errors.New("openai: client is nil")
	}
	if req.Model == "" {
		return insights.Response{}, errors.New("openai: model is empty")
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return insights.Response{}, fmt.Errorf("openai: rate limiter: %w", err)
		}
	}

	resp, err := p.client.Responses.New(ctx, buildParams(req))
	if err != nil {
		return insights.Response{}, err
	}
	return insights.Response{
		Text:            resp.OutputText(),
		ReasoningTokens: int(resp.Usage.OutputTokensDetails.ReasoningTokens),
		TotalTokens:     int(resp.Usage.TotalTokens),
	}, nil
}

func buildParams(req insights.Request) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: req.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.SystemPrompt, responses.EasyInputMessageRoleSystem),
				responses.ResponseInputItemParamOfMessage(req.UserPrompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if req.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxOutputTokens))
	}
	if effort, ok := reasoningEffort(req.ReasoningEffort); ok {
		params.Reasoning = shared.ReasoningParam{Effort: effort}
	}
	return params
}

func reasoningEffort(e insights.ReasoningEffort) (shared.ReasoningEffort, bool) {
	switch e {
	case insights.EffortLow:
		return shared.ReasoningEffortLow, true
	case insights.EffortMedium:
		return shared.ReasoningEffortMedium, true
	case insights.EffortHigh:
		return shared.ReasoningEffortHigh, true
	default:
		return "", false
	}
}

// IsRateLimitError reports whether err looks like a quota or rate limit rejection.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}
