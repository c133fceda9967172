package llmcall

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackzampolin/doctag/internal/providers"
)

// Totals aggregates recorded calls.
type Totals struct {
	Calls        int `json:"calls" yaml:"calls"`
	Failed       int `json:"failed" yaml:"failed"`
	InputTokens  int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`
}

// Recorder appends calls to a JSON Lines file and keeps running totals.
// A nil Recorder records nothing; a zero Recorder only counts.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	opts   RecordOptions
	totals Totals
	logger *slog.Logger
}

// NewRecorder opens path for appending, creating parent directories.
func NewRecorder(path string, opts RecordOptions, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &Recorder{file: f, enc: json.NewEncoder(f), opts: opts, logger: logger}, nil
}

// Observer returns a providers.CallObserver that records every result.
func (r *Recorder) Observer() providers.CallObserver {
	return func(result *providers.ChatResult) {
		r.Record(result)
	}
}

// Record captures a model call. Write failures are logged, not returned.
func (r *Recorder) Record(result *providers.ChatResult) {
	if r == nil {
		return
	}
	r.RecordCall(FromResult(result, r.opts))
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totals.Calls++
	if !call.Success {
		r.totals.Failed++
	}
	r.totals.InputTokens += call.InputTokens
	r.totals.OutputTokens += call.OutputTokens

	if r.enc == nil {
		return
	}
	if err := r.enc.Encode(call); err != nil {
		r.logger.Warn("failed to record model call", "error", err, "request_id", call.RequestID)
	}
}

// Totals returns the aggregate of calls recorded so far.
func (r *Recorder) Totals() Totals {
	if r == nil {
		return Totals{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totals
}

// Close closes the trace file.
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.file.Close()
	r.file = nil
	r.enc = nil
	return err
}

// Load reads every call from a trace file. A missing file yields no calls.
func Load(path string) ([]Call, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	var calls []Call
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var c Call
		if err := json.Unmarshal(sc.Bytes(), &c); err != nil {
			return calls, fmt.Errorf("malformed trace line: %w", err)
		}
		calls = append(calls, c)
	}
	return calls, sc.Err()
}
