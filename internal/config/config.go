package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"clausewise/internal/models"
)

const (
	defaultAddr            = ":8080"
	defaultMaxUploadBytes  = 20 << 20
	defaultHFBaseURL       = "https://router.huggingface.co/hf-inference"
	defaultClassifierModel = "facebook/bart-large-mnli"
	defaultNERModel        = "dslim/bert-base-NER"
	defaultAggregation     = "simple"
	defaultMaxTokens       = 80
	defaultTemperature     = 0.7

	DefaultMaxConcurrency = 4

	BackendHuggingFace = "huggingface"
	BackendEmbedding   = "embedding"

	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	NER         NERConfig         `yaml:"ner"`
	HuggingFace HuggingFaceConfig `yaml:"huggingface"`
	Generation  LLMConfig         `yaml:"generation"`
	Embedding   LLMConfig         `yaml:"embedding"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type ClassifierConfig struct {
	Backend            string   `yaml:"backend"`
	Model              string   `yaml:"model"`
	Labels             []string `yaml:"labels"`
	HypothesisTemplate string   `yaml:"hypothesis_template"`
}

type NERConfig struct {
	Model               string `yaml:"model"`
	AggregationStrategy string `yaml:"aggregation_strategy"`
}

type HuggingFaceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig describes a langchaingo model endpoint, used for generation and embeddings.
type LLMConfig struct {
	Provider    string   `yaml:"provider"`
	BaseURL     string   `yaml:"base_url"`
	Key         string   `yaml:"key"`
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	Prompt      string   `yaml:"prompt"`
}

// AnalysisConfig controls report building. MaxConcurrency caps in-flight model
// calls when Concurrent is set.
type AnalysisConfig struct {
	Concurrent     bool `yaml:"concurrent"`
	MaxConcurrency int  `yaml:"max_concurrency"`
	MaxClauses     int  `yaml:"max_clauses"`
}

// LoadConfig reads the YAML file at path. A missing file yields the defaults.
// A .env file in the working directory and CLAUSEWISE_* variables override file values.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CLAUSEWISE_HF_TOKEN"); v != "" {
		c.HuggingFace.Token = v
	}
	if v := os.Getenv("CLAUSEWISE_LLM_KEY"); v != "" {
		c.Generation.Key = v
	}
	if v := os.Getenv("CLAUSEWISE_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// ApplyDefaults fills every zero value with the default used by the original models.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	// inference on CPU can take minutes for long documents
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Minute
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Classifier.Backend == "" {
		c.Classifier.Backend = BackendHuggingFace
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = defaultClassifierModel
	}
	if c.Classifier.Labels == nil {
		c.Classifier.Labels = append([]string(nil), models.DefaultLabels...)
	}
	if c.Classifier.HypothesisTemplate == "" {
		c.Classifier.HypothesisTemplate = models.DefaultHypothesisTemplate
	}
	if c.NER.Model == "" {
		c.NER.Model = defaultNERModel
	}
	if c.NER.AggregationStrategy == "" {
		c.NER.AggregationStrategy = defaultAggregation
	}
	if c.HuggingFace.BaseURL == "" {
		c.HuggingFace.BaseURL = defaultHFBaseURL
	}
	if c.HuggingFace.Timeout == 0 {
		c.HuggingFace.Timeout = 300 * time.Second
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = ProviderOllama
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "granite3.3:2b"
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = defaultMaxTokens
	}
	if c.Generation.Temperature == nil {
		t := defaultTemperature
		c.Generation.Temperature = &t
	}
	if c.Generation.Prompt == "" {
		c.Generation.Prompt = models.SimplifyPromptTemplate
	}
	if c.Analysis.MaxConcurrency == 0 {
		c.Analysis.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOllama
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
}

// SamplingTemperature returns the configured temperature. An explicit 0 is kept.
func (c *LLMConfig) SamplingTemperature() float64 {
	if c.Temperature == nil {
		return defaultTemperature
	}
	return *c.Temperature
}

func (c *Config) Validate() error {
	if len(c.Classifier.Labels) == 0 {
		return errors.New("classifier.labels must not be empty")
	}
	switch c.Classifier.Backend {
	case BackendHuggingFace, BackendEmbedding:
	default:
		return fmt.Errorf("unknown classifier backend: %q", c.Classifier.Backend)
	}
	for name, p := range map[string]string{"generation": c.Generation.Provider, "embedding": c.Embedding.Provider} {
		if p != ProviderOpenAI && p != ProviderOllama {
			return fmt.Errorf("unknown %s provider: %q", name, p)
		}
	}
	if strings.Count(c.Generation.Prompt, "%s") != 1 {
		return fmt.Errorf("generation.prompt must contain exactly one %%s for the clause, got %q", c.Generation.Prompt)
	}
	if t := c.Generation.Temperature; t != nil && *t < 0 {
		return fmt.Errorf("generation.temperature must not be negative, got %v", *t)
	}
	if c.Generation.MaxTokens < 0 {
		return fmt.Errorf("generation.max_tokens must not be negative, got %d", c.Generation.MaxTokens)
	}
	if c.Analysis.MaxConcurrency < 0 {
		return fmt.Errorf("analysis.max_concurrency must not be negative, got %d", c.Analysis.MaxConcurrency)
	}
	if c.Analysis.MaxClauses < 0 {
		return fmt.Errorf("analysis.max_clauses must not be negative, got %d", c.Analysis.MaxClauses)
	}
	if c.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("server.max_upload_bytes must not be negative, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}
