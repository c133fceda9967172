package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/doctag/internal/config"
	"github.com/jackzampolin/doctag/internal/extract"
	"github.com/jackzampolin/doctag/internal/home"
	"github.com/jackzampolin/doctag/internal/llmcall"
	"github.com/jackzampolin/doctag/internal/providers"
)

// pipelineFlags are the config overrides shared by run, watch and inspect.
type pipelineFlags struct {
	segMode       string
	sentPerChunk  int
	paraPerChunk  int
	charsPerChunk int
	strideChars   int
	preannotated  bool
	provider      string
	model         string
	batchSize     int
	workers       int
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.segMode, "seg-mode", "", "segmentation mode: sentences, paragraphs or chars")
	flags.IntVar(&f.sentPerChunk, "sent-per-chunk", 0, "sentences per chunk")
	flags.IntVar(&f.paraPerChunk, "para-per-chunk", 0, "paragraphs per chunk")
	flags.IntVar(&f.charsPerChunk, "chars-per-chunk", 0, "characters per chunk")
	flags.IntVar(&f.strideChars, "stride-chars", 0, "character window stride (0 = no overlap)")
	flags.BoolVar(&f.preannotated, "preannotated-only", false, "parse existing [X*]...[*X] markup instead of calling the model")
	flags.StringVar(&f.provider, "provider", "", "annotation provider: openai or mock")
	flags.StringVar(&f.model, "model-path", "", "annotation model name served by the provider")
	flags.IntVar(&f.batchSize, "batch-size", 0, "chunks per model request")
	flags.IntVar(&f.workers, "workers", 0, "documents processed in parallel")
}

// apply returns a copy of base with every explicitly set flag applied.
func (f *pipelineFlags) apply(cmd *cobra.Command, base *config.Config) (*config.Config, error) {
	c := *base
	flags := cmd.Flags()
	if flags.Changed("seg-mode") {
		c.Segment.Mode = f.segMode
	}
	if flags.Changed("sent-per-chunk") {
		c.Segment.SentencesPerChunk = f.sentPerChunk
	}
	if flags.Changed("para-per-chunk") {
		c.Segment.ParagraphsPerChunk = f.paraPerChunk
	}
	if flags.Changed("chars-per-chunk") {
		c.Segment.CharsPerChunk = f.charsPerChunk
	}
	if flags.Changed("stride-chars") {
		c.Segment.StrideChars = f.strideChars
	}
	if flags.Changed("provider") {
		c.Annotator.Provider = f.provider
	}
	if flags.Changed("model-path") {
		c.Annotator.Model = f.model
	}
	if flags.Changed("batch-size") {
		c.Annotator.BatchSize = f.batchSize
	}
	if flags.Changed("workers") {
		c.Workers = f.workers
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// pipeline owns the extractor and the annotation provider behind it.
type pipeline struct {
	mu           sync.RWMutex
	extractor    *extract.Extractor
	registry     *providers.Registry // nil in pre-annotated mode
	recorder     *llmcall.Recorder
	preannotated bool
	logger       *slog.Logger
}

func newPipeline(cfg *config.Config, preannotated bool, h *home.Dir, runID string, logger *slog.Logger) (*pipeline, error) {
	p := &pipeline{
		recorder:     new(llmcall.Recorder),
		preannotated: preannotated,
		logger:       logger,
	}

	if !preannotated {
		if cfg.Annotator.Trace {
			rec, err := llmcall.NewRecorder(h.CallsPath(), llmcall.RecordOptions{RunID: runID}, logger)
			if err != nil {
				return nil, err
			}
			p.recorder = rec
			logger.Info("tracing model calls", "file", h.CallsPath())
		}
		reg, err := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig(logger, p.recorder.Observer()), logger)
		if err != nil {
			p.recorder.Close()
			return nil, err
		}
		p.registry = reg
	}

	if err := p.Reload(cfg); err != nil {
		p.recorder.Close()
		return nil, err
	}
	return p, nil
}

// Reload rebuilds the extractor from cfg, reusing the provider client when
// its settings are unchanged.
func (p *pipeline) Reload(cfg *config.Config) error {
	opts, err := cfg.SegmentOptions()
	if err != nil {
		return err
	}

	var ann providers.Annotator
	if p.registry != nil {
		if err := p.registry.Reload(cfg.ToProviderRegistryConfig(p.logger, p.recorder.Observer())); err != nil {
			return err
		}
		ann, err = p.registry.Default()
		if err != nil {
			return fmt.Errorf("no annotator available: %w", err)
		}
	}

	ext := extract.New(extract.Config{
		Segment:   opts,
		Annotator: ann,
		Detector:  cfg.Detector(),
		Logger:    p.logger,
	})

	p.mu.Lock()
	p.extractor = ext
	p.mu.Unlock()
	return nil
}

// Extractor returns the current extractor.
func (p *pipeline) Extractor() *extract.Extractor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.extractor
}

// AnnotatorName returns the active provider name, or "" in pre-annotated mode.
func (p *pipeline) AnnotatorName() string {
	if p.registry == nil {
		return ""
	}
	a, err := p.registry.Default()
	if err != nil {
		return ""
	}
	return a.Name()
}

func (p *pipeline) Close() error {
	return p.recorder.Close()
}
