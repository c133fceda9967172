package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds annotators by name. It supports config-driven
// instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu         sync.RWMutex
	annotators map[string]Annotator
	current    RegistryConfig
	logger     *slog.Logger
}

// RegistryConfig selects and configures the annotator.
type RegistryConfig struct {
	// Provider is the annotator used by default ("openai" or "mock").
	Provider string
	OpenAI   OpenAIConfig
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		annotators: make(map[string]Annotator),
		logger:     slog.Default(),
	}
}

// NewRegistryFromConfig creates a registry holding the mock annotator and,
// when selected, the OpenAI-compatible annotator.
func NewRegistryFromConfig(cfg RegistryConfig, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry()
	if logger != nil {
		r.logger = logger
	}
	if err := r.Reload(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers an annotator under name.
func (r *Registry) Register(name string, a Annotator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.annotators[name] = a
	if r.logger != nil {
		r.logger.Info("registered annotator", "name", name)
	}
}

// Unregister removes an annotator by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.annotators, name)
	if r.logger != nil {
		r.logger.Info("unregistered annotator", "name", name)
	}
}

// Get returns an annotator by name.
func (r *Registry) Get(name string) (Annotator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.annotators[name]
	if !ok {
		return nil, fmt.Errorf("annotator not found: %s", name)
	}
	return a, nil
}

// Default returns the annotator selected by the current config.
func (r *Registry) Default() (Annotator, error) {
	r.mu.RLock()
	name := r.current.Provider
	r.mu.RUnlock()
	if name == "" {
		name = OpenAIName
	}
	return r.Get(name)
}

// Has checks if an annotator is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.annotators[name]
	return ok
}

// List returns all registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.annotators))
	for name := range r.annotators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reload applies cfg. The OpenAI annotator is recreated only when its
// settings changed; it is removed when another provider is selected.
func (r *Registry) Reload(cfg RegistryConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.Provider == "" {
		cfg.Provider = OpenAIName
	}

	switch cfg.Provider {
	case OpenAIName, MockName:
	default:
		return fmt.Errorf("unknown annotator provider: %s", cfg.Provider)
	}

	if _, ok := r.annotators[MockName]; !ok {
		r.annotators[MockName] = NewMockAnnotator()
	}

	if cfg.Provider == OpenAIName {
		existing, hasExisting := r.annotators[OpenAIName]
		if !hasExisting || needsOpenAIUpdate(existing, cfg.OpenAI) {
			ann, err := NewOpenAIAnnotator(cfg.OpenAI)
			if err != nil {
				return fmt.Errorf("failed to create openai annotator: %w", err)
			}
			r.annotators[OpenAIName] = ann
			if r.logger != nil {
				if hasExisting {
					r.logger.Info("updated annotator", "name", OpenAIName, "model", ann.Model())
				} else {
					r.logger.Info("registered annotator", "name", OpenAIName, "model", ann.Model())
				}
			}
		}
	} else if _, ok := r.annotators[OpenAIName]; ok {
		delete(r.annotators, OpenAIName)
		if r.logger != nil {
			r.logger.Info("unregistered annotator", "name", OpenAIName)
		}
	}

	r.current = cfg
	return nil
}

// needsOpenAIUpdate checks if the annotator needs to be recreated.
func needsOpenAIUpdate(a Annotator, cfg OpenAIConfig) bool {
	c, ok := a.(*OpenAIAnnotator)
	if !ok {
		return true
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return c.apiKey != cfg.APIKey ||
		c.baseURL != cfg.BaseURL ||
		c.model != model ||
		c.batchSize != batch ||
		c.maxRetries != max(cfg.MaxRetries, 0)
}
