package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/theimaginaryfoundation/comment-insights/insights/extract"
)

// fakeLLM answers calls in order. Chunk prompts start with "Analiza"; anything else
// is the synthesis call.
type fakeLLM struct {
	calls     []Request
	chunkErr  map[int]error
	synthErr  error
	synthText string
}

func (f *fakeLLM) Analyze(_ context.Context, req Request) (Response, error) {
	f.calls = append(f.calls, req)
	if strings.HasPrefix(req.UserPrompt, "Analiza") {
		n := len(f.calls)
		if err := f.chunkErr[n]; err != nil {
			return Response{}, err
		}
		return Response{Text: "analisis del grupo " + string(rune('A'+n-1)), ReasoningTokens: 10 * n, TotalTokens: 100 * n}, nil
	}
	if f.synthErr != nil {
		return Response{}, f.synthErr
	}
	return Response{Text: f.synthText, ReasoningTokens: 7, TotalTokens: 70}, nil
}

type recordingObserver struct {
	events   []string
	progress []int
	synth    int
}

func (o *recordingObserver) ChunkStarted(n, total int) {
	o.events = append(o.events, fmt.Sprintf("start %d/%d", n, total))
}

func (o *recordingObserver) ChunkAnalyzed(done, total int, _ Analysis) {
	o.events = append(o.events, fmt.Sprintf("done %d/%d", done, total))
	o.progress = append(o.progress, done*100+total)
}

func (o *recordingObserver) SynthesisDone(Analysis) { o.synth++ }

const finalText = `1. SENTIMIENTO GENERAL:
Hay 40% positivos, 35% negativos y 25% neutrales.

2. TEMAS PRINCIPALES:
- Precio (50%)
- Calidad (30%)`

func testPipeline(llm LLM) Pipeline {
	return Pipeline{
		LLM:             llm,
		ChunkParams:     ModelParams{Model: "o1", ReasoningEffort: EffortHigh, MaxOutputTokens: 4000},
		SynthesisParams: ModelParams{Model: "o1", ReasoningEffort: EffortHigh, MaxOutputTokens: 8000},
		ChunkSize:       2,
		Now:             func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestPipelineRun_OneFailedChunk(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{
		chunkErr:  map[int]error{2: errors.New("rate limit exceeded")},
		synthText: finalText,
	}
	obs := &recordingObserver{}
	p := testPipeline(llm)
	p.Observer = obs

	res, err := p.Run(context.Background(), []string{"uno", "dos", "tres", "cuatro", "cinco"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(llm.calls) != 4 {
		t.Fatalf("calls=%d want 4", len(llm.calls))
	}
	if res.ChunkCount != 3 || res.FailedChunks != 1 || res.TotalComments != 5 {
		t.Fatalf("res=%+v", res)
	}

	synth := llm.calls[3]
	if synth.MaxOutputTokens != 8000 || llm.calls[0].MaxOutputTokens != 4000 {
		t.Fatalf("token budgets chunk=%d synth=%d", llm.calls[0].MaxOutputTokens, synth.MaxOutputTokens)
	}
	prompt := synth.UserPrompt
	if !strings.Contains(prompt, "en 3 grupos") {
		t.Fatalf("synthesis prompt should report the original chunk count:\n%s", prompt)
	}
	if !strings.Contains(prompt, "--- INSIGHTS DEL GRUPO 1 de 3 ---\nanalisis del grupo A") {
		t.Fatalf("missing group 1:\n%s", prompt)
	}
	if !strings.Contains(prompt, "--- INSIGHTS DEL GRUPO 3 de 3 ---\nanalisis del grupo C") {
		t.Fatalf("group 3 must keep its original label:\n%s", prompt)
	}
	if strings.Contains(prompt, "GRUPO 2 de 3") || strings.Contains(prompt, "rate limit") {
		t.Fatalf("failed chunk leaked into synthesis prompt:\n%s", prompt)
	}

	failed := res.ChunkAnalyses[1]
	if !failed.Failed || failed.Text != "Error: rate limit exceeded" || failed.TotalTokens != 0 {
		t.Fatalf("failed=%+v", failed)
	}

	// chunks 1 and 3 plus synthesis
	if want := (TokenUsage{Reasoning: 10 + 30 + 7, Total: 100 + 300 + 70}); res.Usage != want {
		t.Fatalf("usage=%+v want=%+v", res.Usage, want)
	}

	if res.Metrics.Sentiment != (extract.Distribution{Positive: 40, Negative: 35, Neutral: 25}) {
		t.Fatalf("sentiment=%+v", res.Metrics.Sentiment)
	}
	if len(res.Metrics.Themes) != 2 || res.Metrics.Themes[0].Name != "Precio" {
		t.Fatalf("themes=%+v", res.Metrics.Themes)
	}
	if len(res.Sections) != len(extract.SectionKeys) {
		t.Fatalf("sections=%v", res.Sections)
	}
	if !res.Succeeded() {
		t.Fatalf("expected success")
	}
	if res.RunID == "" {
		t.Fatalf("missing run id")
	}

	if len(obs.progress) != 3 || obs.progress[0] != 103 || obs.progress[2] != 303 || obs.synth != 1 {
		t.Fatalf("observer progress=%v synth=%d", obs.progress, obs.synth)
	}
	wantEvents := []string{"start 1/3", "done 1/3", "start 2/3", "done 2/3", "start 3/3", "done 3/3"}
	if strings.Join(obs.events, ",") != strings.Join(wantEvents, ",") {
		t.Fatalf("events=%v want=%v", obs.events, wantEvents)
	}
}

func TestPipelineRun_ListFormattedSynthesis(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{synthText: `1. SENTIMIENTO GENERAL:
- Positivos: 50%
- Negativos: 30%
- Neutrales: 20%

2. TEMAS PRINCIPALES:
1. Calidad (45%)
2. Precio (30%)
3. Servicio (25%)
3. FORTALEZAS DEL PRODUCTO:
- Durabilidad`}

	res, err := testPipeline(llm).Run(context.Background(), []string{"uno", "dos", "tres"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := (extract.Distribution{Positive: 50, Neutral: 20, Negative: 30}); res.Metrics.Sentiment != want {
		t.Fatalf("sentiment=%+v want=%+v", res.Metrics.Sentiment, want)
	}
	want := []extract.Theme{{Name: "Calidad", Percentage: 45}, {Name: "Precio", Percentage: 30}, {Name: "Servicio", Percentage: 25}}
	if len(res.Metrics.Themes) != len(want) {
		t.Fatalf("themes=%+v want=%+v", res.Metrics.Themes, want)
	}
	for i := range want {
		if res.Metrics.Themes[i] != want[i] {
			t.Fatalf("theme[%d] got=%+v want=%+v", i, res.Metrics.Themes[i], want[i])
		}
	}
}

func TestPipelineRun_SynthesisFailurePropagates(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{synthErr: errors.New("service unavailable")}
	res, err := testPipeline(llm).Run(context.Background(), []string{"uno", "dos", "tres"})
	if !errors.Is(err, ErrSynthesisFailed) {
		t.Fatalf("err=%v want ErrSynthesisFailed", err)
	}
	var cerr *CollaboratorCallError
	if !errors.As(err, &cerr) || cerr.Reason() != "service unavailable" {
		t.Fatalf("err=%#v", err)
	}
	if res == nil || res.Succeeded() {
		t.Fatalf("res=%+v", res)
	}
	if res.Final.Text != "Error: service unavailable" {
		t.Fatalf("final=%q", res.Final.Text)
	}
	if res.Metrics.Sentiment != extract.DefaultDistribution() {
		t.Fatalf("sentiment=%+v", res.Metrics.Sentiment)
	}
	if want := (TokenUsage{Reasoning: 30, Total: 300}); res.Usage != want {
		t.Fatalf("usage=%+v want=%+v", res.Usage, want)
	}
}

func TestPipelineRun_EmptyInput(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{}
	res, err := testPipeline(llm).Run(context.Background(), []string{" ", ""})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v", err)
	}
	if res != nil || len(llm.calls) != 0 {
		t.Fatalf("res=%v calls=%d", res, len(llm.calls))
	}
}

func TestChunkAnalyzer_EmptyResponseIsFailure(t *testing.T) {
	t.Parallel()

	a := ChunkAnalyzer{LLM: emptyLLM{}}.Analyze(context.Background(), Chunk{Number: 4, Comments: []string{"x"}})
	if !a.Failed || !errors.Is(a.Err, ErrEmptyResponse) || a.Chunk != 4 {
		t.Fatalf("a=%+v", a)
	}
}

func TestChunkAnalyzer_NilLLM(t *testing.T) {
	t.Parallel()

	a := ChunkAnalyzer{}.Analyze(context.Background(), Chunk{Number: 1, Comments: []string{"x"}})
	if !a.Failed || a.Text != "Error: llm is nil" {
		t.Fatalf("a=%+v", a)
	}
}

type emptyLLM struct{}

func (emptyLLM) Analyze(context.Context, Request) (Response, error) {
	return Response{Text: "  \n", TotalTokens: 12}, nil
}

func TestBuildChunkPrompt(t *testing.T) {
	t.Parallel()

	got := BuildChunkPrompt(Chunk{Number: 1, Comments: []string{"Great product!", "Too expensive."}})
	if !strings.HasPrefix(got, "Analiza este conjunto de 2 comentarios") {
		t.Fatalf("prompt=%q", got)
	}
	if !strings.Contains(got, "Comentario 1: Great product!\n\nComentario 2: Too expensive.") {
		t.Fatalf("prompt=%q", got)
	}
}

func TestBuildSynthesisInput_SystemPromptDefaults(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{synthText: finalText}
	Aggregator{LLM: llm}.Synthesize(context.Background(), []Analysis{{Text: "x"}}, 1)
	if len(llm.calls) != 1 || llm.calls[0].SystemPrompt != DefaultSystemPrompt {
		t.Fatalf("calls=%+v", llm.calls)
	}
	if !strings.Contains(llm.calls[0].UserPrompt, "7. RECOMENDACIONES ACCIONABLES") {
		t.Fatalf("prompt=%q", llm.calls[0].UserPrompt)
	}
}

func TestResultSchema(t *testing.T) {
	t.Parallel()

	s, err := ResultSchema()
	if err != nil {
		t.Fatalf("ResultSchema: %v", err)
	}
	props, ok := s["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema=%v", s)
	}
	for _, k := range []string{"run_id", "chunk_analyses", "final", "usage", "metrics", "sections"} {
		if _, ok := props[k]; !ok {
			t.Fatalf("missing property %q", k)
		}
	}
}
