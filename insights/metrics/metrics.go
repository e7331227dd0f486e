// Package metrics records per-run Prometheus metrics and writes them in the
// node-exporter textfile format.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/theimaginaryfoundation/comment-insights/insights"
)

const namespace = "comment_insights"

// Recorder owns a private registry so every run starts from zero. It implements
// insights.Observer.
type Recorder struct {
	reg *prometheus.Registry

	ChunksTotal     *prometheus.CounterVec
	TokensTotal     *prometheus.CounterVec
	SynthesisOK     prometheus.Gauge
	Comments        prometheus.Gauge
	SentimentRatio  *prometheus.GaugeVec
	Themes          prometheus.Gauge
	DurationSeconds prometheus.Gauge
}

var _ insights.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		ChunksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_total",
				Help:      "Chunk analyses by outcome",
			},
			[]string{"status"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Tokens consumed by stage and kind",
			},
			[]string{"stage", "kind"},
		),
		SynthesisOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "synthesis_success",
			Help:      "1 when the synthesis produced a report",
		}),
		Comments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "comments",
			Help:      "Comments analyzed in the run",
		}),
		SentimentRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sentiment_percent",
				Help:      "Extracted sentiment distribution",
			},
			[]string{"category"},
		),
		Themes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "themes",
			Help:      "Themes extracted from the report",
		}),
		DurationSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the run",
		}),
	}
	r.reg.MustRegister(
		r.ChunksTotal,
		r.TokensTotal,
		r.SynthesisOK,
		r.Comments,
		r.SentimentRatio,
		r.Themes,
		r.DurationSeconds,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

func (r *Recorder) ChunkStarted(_, _ int) {}

func (r *Recorder) ChunkAnalyzed(_, _ int, a insights.Analysis) {
	status := "ok"
	if a.Failed {
		status = "failed"
	}
	r.ChunksTotal.WithLabelValues(status).Inc()
	r.addTokens("chunk", a.Usage())
}

func (r *Recorder) SynthesisDone(a insights.Analysis) {
	if a.Failed {
		r.SynthesisOK.Set(0)
		return
	}
	r.SynthesisOK.Set(1)
	r.addTokens("synthesis", a.Usage())
}

func (r *Recorder) addTokens(stage string, u insights.TokenUsage) {
	r.TokensTotal.WithLabelValues(stage, "reasoning").Add(float64(u.Reasoning))
	r.TokensTotal.WithLabelValues(stage, "total").Add(float64(u.Total))
}

// ObserveResult records the run-level values once Pipeline.Run has returned.
func (r *Recorder) ObserveResult(res *insights.Result) {
	if res == nil {
		return
	}
	r.Comments.Set(float64(res.TotalComments))
	r.DurationSeconds.Set(res.Duration().Seconds())
	r.Themes.Set(float64(len(res.Metrics.Themes)))
	s := res.Metrics.Sentiment
	r.SentimentRatio.WithLabelValues("positive").Set(s.Positive)
	r.SentimentRatio.WithLabelValues("neutral").Set(s.Neutral)
	r.SentimentRatio.WithLabelValues("negative").Set(s.Negative)
}

// WriteTextfile writes the registry to path for the node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics: empty textfile path")
	}
	return prometheus.WriteToTextfile(path, r.reg)
}

// Tee fans observer callbacks out to several observers, skipping nil ones.
type Tee []insights.Observer

func (t Tee) ChunkStarted(n, total int) {
	for _, o := range t {
		if o != nil {
			o.ChunkStarted(n, total)
		}
	}
}

func (t Tee) ChunkAnalyzed(done, total int, a insights.Analysis) {
	for _, o := range t {
		if o != nil {
			o.ChunkAnalyzed(done, total, a)
		}
	}
}

func (t Tee) SynthesisDone(a insights.Analysis) {
	for _, o := range t {
		if o != nil {
			o.SynthesisDone(a)
		}
	}
}
