package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/theimaginaryfoundation/comment-insights/insights"
	"github.com/theimaginaryfoundation/comment-insights/insights/ingest"
	"github.com/theimaginaryfoundation/comment-insights/insights/logging"
)

const defaultConfigPath = "comment-insights.yaml"

type Config struct {
	APIKey            string `yaml:"api_key"`
	BaseURL           string `yaml:"base_url" validate:"omitempty,url"`
	RequestsPerMinute int    `yaml:"requests_per_minute" validate:"min=0"`

	Model                    string `yaml:"model" validate:"required"`
	ReasoningEffort          string `yaml:"reasoning_effort" validate:"oneof=low medium high"`
	ChunkMaxOutputTokens     int    `yaml:"chunk_max_output_tokens" validate:"gt=0"`
	SynthesisMaxOutputTokens int    `yaml:"synthesis_max_output_tokens" validate:"gt=0"`
	SystemPromptFile         string `yaml:"system_prompt_file"`

	ChunkSize   int    `yaml:"chunk_size" validate:"min=10,max=200"`
	MaxComments int    `yaml:"max_comments" validate:"min=0"`
	Column      string `yaml:"column" validate:"required"`
	MaxPoints   int    `yaml:"max_points" validate:"min=1"`

	OutputDir   string `yaml:"output_dir" validate:"required"`
	DataDir     string `yaml:"data_dir"`
	MetricsFile string `yaml:"metrics_file"`

	Log logging.Config `yaml:"log"`
}

func defaultConfig() Config {
	return Config{
		Model:                    "o1",
		ReasoningEffort:          string(insights.EffortHigh),
		ChunkMaxOutputTokens:     4000,
		SynthesisMaxOutputTokens: 8000,
		ChunkSize:                50,
		Column:                   ingest.DefaultColumn,
		MaxPoints:                5,
		OutputDir:                "outputs",
		DataDir:                  "outputs",
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func (c Config) ChunkParams() insights.ModelParams {
	return insights.ModelParams{
		Model:           c.Model,
		ReasoningEffort: insights.ReasoningEffort(c.ReasoningEffort),
		MaxOutputTokens: c.ChunkMaxOutputTokens,
	}
}

func (c Config) SynthesisParams() insights.ModelParams {
	p := c.ChunkParams()
	p.MaxOutputTokens = c.SynthesisMaxOutputTokens
	return p
}

// loadConfigFile reads path over the defaults. A missing file at the default path is
// not an error; an explicitly named one must exist.
func loadConfigFile(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveAPIKey falls back to OPENAI_API_KEY when neither the file nor a flag set one.
func (c *Config) resolveAPIKey() error {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.APIKey == "" {
		return errors.New("missing OPENAI_API_KEY (or pass --api-key)")
	}
	return nil
}

func (c *Config) cleanPaths() {
	c.OutputDir = filepath.Clean(c.OutputDir)
	if c.DataDir != "" {
		c.DataDir = filepath.Clean(c.DataDir)
	}
}

// loadSystemPrompt returns "" (use the built-in prompt) when path is empty.
func loadSystemPrompt(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system-prompt-file: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", errors.New("system-prompt-file is empty after trimming whitespace")
	}
	return s, nil
}
