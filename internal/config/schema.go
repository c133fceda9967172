package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/doctag/internal/index"
	"github.com/jackzampolin/doctag/internal/providers"
	"github.com/jackzampolin/doctag/internal/segment"
	"github.com/jackzampolin/doctag/internal/supervisor"
)

// Config holds doctag configuration.
// Stored at: ./config.yaml or ~/.doctag/config.yaml
type Config struct {
	Segment     SegmentCfg     `mapstructure:"segment" yaml:"segment"`
	Annotator   AnnotatorCfg   `mapstructure:"annotator" yaml:"annotator"`
	Supervisors SupervisorsCfg `mapstructure:"supervisors" yaml:"supervisors"`
	Index       IndexCfg       `mapstructure:"index" yaml:"index"`
	Workers     int            `mapstructure:"workers" yaml:"workers"` // Documents processed in parallel
}

// SegmentCfg configures chunking of the main text.
type SegmentCfg struct {
	Mode               string `mapstructure:"mode" yaml:"mode"` // "sentences", "paragraphs", "chars"
	SentencesPerChunk  int    `mapstructure:"sentences_per_chunk" yaml:"sentences_per_chunk"`
	ParagraphsPerChunk int    `mapstructure:"paragraphs_per_chunk" yaml:"paragraphs_per_chunk"`
	CharsPerChunk      int    `mapstructure:"chars_per_chunk" yaml:"chars_per_chunk"`
	StrideChars        int    `mapstructure:"stride_chars" yaml:"stride_chars"` // 0 = no overlap
}

// AnnotatorCfg configures the annotation provider.
type AnnotatorCfg struct {
	Provider          string `mapstructure:"provider" yaml:"provider"` // "openai", "mock"
	BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
	Model             string `mapstructure:"model" yaml:"model"`
	APIKey            string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	BatchSize         int    `mapstructure:"batch_size" yaml:"batch_size"`
	MaxRetries        int    `mapstructure:"max_retries" yaml:"max_retries"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"` // 0 = unlimited
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Trace             bool   `mapstructure:"trace" yaml:"trace"` // Record calls to ~/.doctag/calls.jsonl
}

// SupervisorsCfg configures supervisor detection.
type SupervisorsCfg struct {
	Surnames   []string `mapstructure:"surnames" yaml:"surnames"`
	Suppressed string   `mapstructure:"suppressed" yaml:"suppressed"`
	Unknown    string   `mapstructure:"unknown" yaml:"unknown"`
}

// IndexCfg configures the tag index written in the root folder.
type IndexCfg struct {
	FileName string `mapstructure:"file_name" yaml:"file_name"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Segment: SegmentCfg{
			Mode:               string(segment.ModeSentences),
			SentencesPerChunk:  segment.DefaultSentencesPerChunk,
			ParagraphsPerChunk: segment.DefaultParagraphsPerChunk,
			CharsPerChunk:      segment.DefaultCharsPerChunk,
			StrideChars:        0,
		},
		Annotator: AnnotatorCfg{
			Provider:          providers.OpenAIName,
			BaseURL:           "http://localhost:8000/v1",
			Model:             providers.DefaultModel,
			APIKey:            "${OPENAI_API_KEY}",
			BatchSize:         providers.DefaultBatchSize,
			MaxRetries:        3,
			RequestsPerMinute: 0,
			TimeoutSeconds:    300,
			Trace:             false,
		},
		Supervisors: SupervisorsCfg{
			Surnames:   append([]string(nil), supervisor.DefaultSurnames...),
			Suppressed: supervisor.Suppressed,
			Unknown:    supervisor.Unknown,
		},
		Index: IndexCfg{
			FileName: index.DefaultFileName,
		},
		Workers: 1,
	}
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if _, err := segment.ParseMode(c.Segment.Mode); err != nil {
		return err
	}
	switch c.Annotator.Provider {
	case "", providers.OpenAIName, providers.MockName:
	default:
		return fmt.Errorf("unknown annotator provider: %s", c.Annotator.Provider)
	}
	if c.Segment.StrideChars < 0 {
		return fmt.Errorf("segment.stride_chars must not be negative")
	}
	if c.Index.FileName == "" {
		return fmt.Errorf("index.file_name must not be empty")
	}
	return nil
}

// SegmentOptions converts the segment section.
func (c *Config) SegmentOptions() (segment.Options, error) {
	mode, err := segment.ParseMode(c.Segment.Mode)
	if err != nil {
		return segment.Options{}, err
	}
	return segment.Options{
		Mode:               mode,
		SentencesPerChunk:  c.Segment.SentencesPerChunk,
		ParagraphsPerChunk: c.Segment.ParagraphsPerChunk,
		CharsPerChunk:      c.Segment.CharsPerChunk,
		StrideChars:        c.Segment.StrideChars,
	}, nil
}

// Detector builds the supervisor detector. An empty surname list falls back
// to the built-in one.
func (c *Config) Detector() *supervisor.Detector {
	names := c.Supervisors.Surnames
	if len(names) == 0 {
		names = supervisor.DefaultSurnames
	}
	var opts []supervisor.Option
	if c.Supervisors.Suppressed != "" {
		opts = append(opts, supervisor.WithSuppressed(c.Supervisors.Suppressed))
	}
	if c.Supervisors.Unknown != "" {
		opts = append(opts, supervisor.WithUnknown(c.Supervisors.Unknown))
	}
	return supervisor.New(names, opts...)
}

// ToProviderRegistryConfig converts the annotator section to a format
// suitable for providers.Registry. It resolves ${ENV_VAR} references in the
// API key.
func (c *Config) ToProviderRegistryConfig(logger *slog.Logger, observer providers.CallObserver) providers.RegistryConfig {
	a := c.Annotator
	return providers.RegistryConfig{
		Provider: a.Provider,
		OpenAI: providers.OpenAIConfig{
			APIKey:            ResolveEnvVars(a.APIKey),
			BaseURL:           a.BaseURL,
			Model:             a.Model,
			BatchSize:         a.BatchSize,
			MaxRetries:        a.MaxRetries,
			RequestsPerMinute: a.RequestsPerMinute,
			Timeout:           time.Duration(a.TimeoutSeconds) * time.Second,
			Logger:            logger,
			Observer:          observer,
		},
	}
}
