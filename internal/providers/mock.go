package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const MockName = "mock"

// MockAnnotator is an Annotator for tests and offline runs. By default it
// echoes every chunk unchanged, so text that already carries markup passes
// through to the tag parser.
type MockAnnotator struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int               // Fail after N calls (0 = never)
	Outputs    map[string]string // Exact chunk -> annotated output
	Transform  func(string) string
	Drop       int // Outputs to drop from the end, simulating a short reply

	// State
	callCount  atomic.Int64
	chunkCount atomic.Int64
}

// NewMockAnnotator creates an echoing mock.
func NewMockAnnotator() *MockAnnotator {
	return &MockAnnotator{}
}

// Name returns the provider identifier.
func (m *MockAnnotator) Name() string {
	return MockName
}

// Annotate returns one output per chunk.
func (m *MockAnnotator) Annotate(ctx context.Context, chunks []string) ([]string, error) {
	count := m.callCount.Add(1)

	if m.ShouldFail {
		return nil, fmt.Errorf("mock annotator configured to fail")
	}
	if m.FailAfter > 0 && int(count) > m.FailAfter {
		return nil, fmt.Errorf("mock annotator failed after %d calls", m.FailAfter)
	}

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.chunkCount.Add(int64(len(chunks)))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		switch {
		case m.Outputs != nil && m.Outputs[c] != "":
			out = append(out, m.Outputs[c])
		case m.Transform != nil:
			out = append(out, m.Transform(c))
		default:
			out = append(out, c)
		}
	}

	if m.Drop > 0 {
		out = out[:max(0, len(out)-m.Drop)]
		return out, fmt.Errorf("%w: expected %d outputs, got %d", ErrCountMismatch, len(chunks), len(out))
	}
	return out, nil
}

// CallCount returns the number of Annotate calls made.
func (m *MockAnnotator) CallCount() int64 {
	return m.callCount.Load()
}

// ChunkCount returns the number of chunks annotated.
func (m *MockAnnotator) ChunkCount() int64 {
	return m.chunkCount.Load()
}

// Reset resets the counters.
func (m *MockAnnotator) Reset() {
	m.callCount.Store(0)
	m.chunkCount.Store(0)
}

var _ Annotator = (*MockAnnotator)(nil)
