// Package config loads doctag settings from defaults, a YAML file and
// DOCTAG_ environment variables, and hot-reloads them on file changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes environment overrides, e.g. DOCTAG_SEGMENT_MODE.
const EnvPrefix = "DOCTAG"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
	onError   func(error)
}

// NewManager creates a new config manager and loads initial config.
// homeDir is searched for config.yaml after the working directory.
func NewManager(cfgFile, homeDir string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, homeDir); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile, homeDir string) error {
	v := cm.v
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir != "" {
			v.AddConfigPath(homeDir)
		}
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults registers every leaf key so environment overrides apply to
// nested values.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("segment.mode", d.Segment.Mode)
	v.SetDefault("segment.sentences_per_chunk", d.Segment.SentencesPerChunk)
	v.SetDefault("segment.paragraphs_per_chunk", d.Segment.ParagraphsPerChunk)
	v.SetDefault("segment.chars_per_chunk", d.Segment.CharsPerChunk)
	v.SetDefault("segment.stride_chars", d.Segment.StrideChars)

	v.SetDefault("annotator.provider", d.Annotator.Provider)
	v.SetDefault("annotator.base_url", d.Annotator.BaseURL)
	v.SetDefault("annotator.model", d.Annotator.Model)
	v.SetDefault("annotator.api_key", d.Annotator.APIKey)
	v.SetDefault("annotator.batch_size", d.Annotator.BatchSize)
	v.SetDefault("annotator.max_retries", d.Annotator.MaxRetries)
	v.SetDefault("annotator.requests_per_minute", d.Annotator.RequestsPerMinute)
	v.SetDefault("annotator.timeout_seconds", d.Annotator.TimeoutSeconds)
	v.SetDefault("annotator.trace", d.Annotator.Trace)

	v.SetDefault("supervisors.surnames", d.Supervisors.Surnames)
	v.SetDefault("supervisors.suppressed", d.Supervisors.Suppressed)
	v.SetDefault("supervisors.unknown", d.Supervisors.Unknown)

	v.SetDefault("index.file_name", d.Index.FileName)
	v.SetDefault("workers", d.Workers)
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the file the config was read from, or "".
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// OnError registers a callback for reloads that fail to parse or validate.
// The previous config stays active.
func (cm *Manager) OnError(fn func(error)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.onError = fn
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.mu.RLock()
			onError := cm.onError
			cm.mu.RUnlock()
			if onError != nil {
				onError(err)
			}
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# doctag configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Every key can be overridden with DOCTAG_<SECTION>_<KEY>, e.g. DOCTAG_SEGMENT_MODE=paragraphs

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
