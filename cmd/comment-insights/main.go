package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theimaginaryfoundation/comment-insights/insights"
	"github.com/theimaginaryfoundation/comment-insights/insights/extract"
	"github.com/theimaginaryfoundation/comment-insights/insights/fileutils"
	"github.com/theimaginaryfoundation/comment-insights/insights/history"
	"github.com/theimaginaryfoundation/comment-insights/insights/ingest"
	"github.com/theimaginaryfoundation/comment-insights/insights/logging"
	"github.com/theimaginaryfoundation/comment-insights/insights/metrics"
	"github.com/theimaginaryfoundation/comment-insights/insights/provider"
	"github.com/theimaginaryfoundation/comment-insights/insights/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(defaultDeps()).ExecuteContext(ctx)
	stop()
	if err != nil {
		console{w: os.Stderr}.fail("%s", err.Error())
		os.Exit(exitCode(err))
	}
}

// deps are the collaborators main wires in; tests replace them.
type deps struct {
	newLLM func(cfg Config) (insights.LLM, error)
	now    func() time.Time
}

func defaultDeps() deps {
	return deps{
		newLLM: func(cfg Config) (insights.LLM, error) {
			p, err := provider.NewOpenAI(provider.Options{
				APIKey:            cfg.APIKey,
				BaseURL:           cfg.BaseURL,
				RequestsPerMinute: cfg.RequestsPerMinute,
			})
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		now: time.Now,
	}
}

// usageError marks configuration and input problems (exit status 2).
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) || errors.Is(err, insights.ErrInvalidInput) || errors.Is(err, ingest.ErrMissingColumn) {
		return 2
	}
	return 1
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	logJSON    bool
}

func newRootCmd(d deps) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "comment-insights",
		Short: "Analyze customer comments with a chunked LLM pipeline",
		Long: `comment-insights reads customer comments from a CSV file, analyzes them in
groups with a reasoning model, synthesizes one final report and extracts the
sentiment distribution, main themes and report sections from it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Configuration file path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(
		newAnalyzeCmd(opts, d),
		newExtractCmd(opts),
		newHistoryCmd(opts),
		newSchemaCmd(),
	)
	return root
}

// load reads the config file and applies the global flags that were set.
func (o *rootOptions) load(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfigFile(o.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return Config{}, usageError{err}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON = o.logJSON
	}
	return cfg, nil
}

func newLogger(cfg Config, w io.Writer) (*slog.Logger, error) {
	lc := cfg.Log
	if lc.Output == nil {
		lc.Output = w
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, usageError{err}
	}
	return logger, nil
}

type analyzeOptions struct {
	apiKey           string
	baseURL          string
	rpm              int
	model            string
	effort           string
	chunkTokens      int
	synthesisTokens  int
	systemPromptFile string
	chunkSize        int
	maxComments      int
	column           string
	maxPoints        int
	outDir           string
	dataDir          string
	metricsFile      string
	noHistory        bool
}

func newAnalyzeCmd(root *rootOptions, d deps) *cobra.Command {
	o := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <comments.csv>",
		Short: "Analyze the comments of a CSV file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			o.apply(cmd, &cfg)
			cfg.cleanPaths()
			if err := cfg.Validate(); err != nil {
				return usageError{err}
			}
			if err := cfg.resolveAPIKey(); err != nil {
				return usageError{err}
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], cfg, d)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.apiKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	f.StringVar(&o.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	f.IntVar(&o.rpm, "rpm", 0, "Maximum requests per minute (0 = unlimited)")
	f.StringVarP(&o.model, "model", "m", "", "Reasoning model used for every call (default o1)")
	f.StringVar(&o.effort, "effort", "", "Reasoning effort: low, medium or high")
	f.IntVar(&o.chunkTokens, "chunk-max-tokens", 0, "Output token budget per chunk analysis")
	f.IntVar(&o.synthesisTokens, "synthesis-max-tokens", 0, "Output token budget for the synthesis")
	f.StringVar(&o.systemPromptFile, "system-prompt-file", "", "File whose contents replace the built-in system prompt")
	f.IntVar(&o.chunkSize, "chunk-size", 0, "Comments per chunk (10-200)")
	f.IntVar(&o.maxComments, "max-comments", 0, "Analyze at most this many comments (0 = all)")
	f.StringVar(&o.column, "column", "", "CSV column holding the comment text (default Cuerpo)")
	f.IntVar(&o.maxPoints, "max-points", 0, "Maximum points shown per report section")
	f.StringVarP(&o.outDir, "out", "o", "", "Directory for report files")
	f.StringVar(&o.dataDir, "data-dir", "", "Directory holding the run history database")
	f.StringVar(&o.metricsFile, "metrics-file", "", "Write run metrics to this Prometheus textfile")
	f.BoolVar(&o.noHistory, "no-history", false, "Do not record the run in the history database")
	return cmd
}

// apply overrides cfg with the flags that were set explicitly.
func (o *analyzeOptions) apply(cmd *cobra.Command, cfg *Config) {
	f := cmd.Flags()
	if f.Changed("api-key") {
		cfg.APIKey = o.apiKey
	}
	if f.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if f.Changed("rpm") {
		cfg.RequestsPerMinute = o.rpm
	}
	if f.Changed("model") {
		cfg.Model = o.model
	}
	if f.Changed("effort") {
		cfg.ReasoningEffort = o.effort
		if e, err := insights.ParseReasoningEffort(o.effort); err == nil {
			cfg.ReasoningEffort = string(e)
		}
	}
	if f.Changed("chunk-max-tokens") {
		cfg.ChunkMaxOutputTokens = o.chunkTokens
	}
	if f.Changed("synthesis-max-tokens") {
		cfg.SynthesisMaxOutputTokens = o.synthesisTokens
	}
	if f.Changed("system-prompt-file") {
		cfg.SystemPromptFile = o.systemPromptFile
	}
	if f.Changed("chunk-size") {
		cfg.ChunkSize = o.chunkSize
	}
	if f.Changed("max-comments") {
		cfg.MaxComments = o.maxComments
	}
	if f.Changed("column") {
		cfg.Column = o.column
	}
	if f.Changed("max-points") {
		cfg.MaxPoints = o.maxPoints
	}
	if f.Changed("out") {
		cfg.OutputDir = o.outDir
	}
	if f.Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}
	if o.noHistory {
		cfg.DataDir = ""
	}
}

// runDocument is what the .json report file holds.
type runDocument struct {
	Result *insights.Result      `json:"result"`
	Report report.Document       `json:"report"`
	Files  fileutils.ReportFiles `json:"files"`
}

func runAnalyze(ctx context.Context, stdout, stderr io.Writer, csvPath string, cfg Config, d deps) error {
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	out := console{w: stderr}

	systemPrompt, err := loadSystemPrompt(cfg.SystemPromptFile)
	if err != nil {
		return usageError{err}
	}
	comments, stats, err := ingest.ReadCommentsFile(csvPath, cfg.Column)
	if err != nil {
		return usageError{fmt.Errorf("read %s: %w", csvPath, err)}
	}
	logger.Info("comments loaded", "path", csvPath, "rows", stats.Rows, "valid", stats.Valid, "skipped", stats.Skipped)

	llm, err := d.newLLM(cfg)
	if err != nil {
		return usageError{err}
	}

	rec := metrics.NewRecorder()
	p := insights.Pipeline{
		LLM:             llm,
		ChunkParams:     cfg.ChunkParams(),
		SynthesisParams: cfg.SynthesisParams(),
		SystemPrompt:    systemPrompt,
		ChunkSize:       cfg.ChunkSize,
		MaxComments:     cfg.MaxComments,
		Extractor:       extract.Extractor{Logger: logger},
		Observer:        metrics.Tee{progressObserver{out: out}, rec},
		Logger:          logger,
		Now:             d.now,
	}

	out.title("Analizando %d comentarios de %s con %s", len(comments), filepath.Base(csvPath), cfg.Model)
	res, runErr := p.Run(ctx, comments)
	if res == nil {
		return runErr
	}
	rec.ObserveResult(res)

	doc := report.BuildResult(res, cfg.MaxPoints)
	var files fileutils.ReportFiles
	if res.Succeeded() {
		files, err = writeReports(cfg.OutputDir, res, doc)
		if err != nil {
			return err
		}
	}
	recordHistory(ctx, cfg.DataDir, logger, history.RunFromResult(res, csvPath, files.Text, runErr))
	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("writing metrics textfile failed", "path", cfg.MetricsFile, "error", err)
		}
	}

	out.summary(res, doc)
	fmt.Fprintf(stdout, "run_id=%s comments=%d chunks=%d failed_chunks=%d reasoning_tokens=%d total_tokens=%d report=%s\n",
		res.RunID, res.TotalComments, res.ChunkCount, res.FailedChunks, res.Usage.Reasoning, res.Usage.Total, files.Text)
	if runErr != nil {
		return runErr
	}
	out.success("Informe guardado en %s", files.Text)
	return nil
}

func writeReports(dir string, res *insights.Result, doc report.Document) (fileutils.ReportFiles, error) {
	files := fileutils.NewReportFiles(dir, res.StartedAt)
	if err := fileutils.WriteTextFileAtomic(files.Text, res.Final.Text); err != nil {
		return files, fmt.Errorf("write %s: %w", files.Text, err)
	}
	if err := fileutils.WriteJSONFileAtomic(files.JSON, runDocument{Result: res, Report: doc, Files: files}, true); err != nil {
		return files, fmt.Errorf("write %s: %w", files.JSON, err)
	}
	if err := fileutils.WriteTextFileAtomic(files.Markdown, report.RenderMarkdown(res, doc)); err != nil {
		return files, fmt.Errorf("write %s: %w", files.Markdown, err)
	}
	return files, nil
}

// recordHistory is best effort: a broken history database never fails a run.
func recordHistory(ctx context.Context, dataDir string, logger *slog.Logger, run history.Run) {
	if dataDir == "" {
		return
	}
	store, err := history.Open(dataDir)
	if err != nil {
		logger.Warn("history unavailable", "dir", dataDir, "error", err)
		return
	}
	defer store.Close()
	if err := store.Save(ctx, run); err != nil {
		logger.Warn("recording run failed", "run_id", run.ID, "error", err)
		return
	}
	logger.Debug("run recorded", "run_id", run.ID, "db", store.Path())
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	var format string
	var maxPoints int
	cmd := &cobra.Command{
		Use:   "extract <report.txt>",
		Short: "Extract metrics and sections from a saved final report",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-points") {
				cfg.MaxPoints = maxPoints
			}
			if cfg.MaxPoints < 1 {
				return usageError{errors.New("max-points must be >= 1")}
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			text, err := fileutils.ReadText(args[0])
			if err != nil {
				return usageError{err}
			}
			if strings.TrimSpace(text) == "" {
				return &insights.InvalidInputError{Reason: "report is empty"}
			}
			m, sections := extract.Extractor{Logger: logger}.Extract(text)
			doc := report.Build(text, m, sections, cfg.MaxPoints)

			w := cmd.OutOrStdout()
			switch format {
			case "md", "markdown":
				_, err = io.WriteString(w, report.RenderMarkdown(nil, doc))
				return err
			case "json":
				return writeJSON(w, struct {
					Metrics  extract.Metrics  `json:"metrics"`
					Sections extract.Sections `json:"sections"`
					Report   report.Document  `json:"report"`
				}{m, sections, doc})
			case "text":
				for _, sec := range doc.Sections {
					fmt.Fprintf(w, "%s\n\n%s", sec.Title, report.FormatKeyPoints(sections.Get(sec.Key), cfg.MaxPoints))
				}
				return nil
			default:
				return usageError{fmt.Errorf("unknown format %q (want md|json|text)", format)}
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format: md, json or text")
	cmd.Flags().IntVar(&maxPoints, "max-points", 0, "Maximum points shown per report section")
	return cmd
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int
	var asJSON bool
	var dataDir string
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if cfg.DataDir == "" {
				return usageError{errors.New("history is disabled: data_dir is empty")}
			}
			store, err := history.Open(cfg.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(w, run)
			}
			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(w, runs)
			}
			printRuns(w, runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding the run history database")
	return cmd
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	fmt.Fprintf(w, "%-36s  %-19s  %-6s  %9s  %6s  %6s  %10s  %s\n",
		"RUN", "STARTED", "STATUS", "COMMENTS", "CHUNKS", "FAILED", "TOKENS", "POS/NEU/NEG")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-19s  %-6s  %9d  %6d  %6d  %10d  %.0f/%.0f/%.0f\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status,
			r.TotalComments, r.ChunkCount, r.FailedChunks, r.TotalTokens,
			r.Sentiment.Positive, r.Sentiment.Neutral, r.Sentiment.Negative)
	}
}

func newSchemaCmd() *cobra.Command {
	var resultOnly bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the .json report file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var schema map[string]any
			var err error
			if resultOnly {
				schema, err = insights.ResultSchema()
			} else {
				schema, err = insights.GenerateSchema[runDocument]()
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), schema)
		},
	}
	cmd.Flags().BoolVar(&resultOnly, "result", false, "Print only the schema of the pipeline result")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
