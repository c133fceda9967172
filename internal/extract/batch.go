package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/doctag/internal/index"
	"github.com/jackzampolin/doctag/internal/ingest"
)

// Appender receives one index record per extracted document.
type Appender interface {
	Append(index.Record) error
}

// Batch runs an Extractor over many documents under one root folder.
type Batch struct {
	Extractor *Extractor
	Root      string
	Index     Appender // Optional
	Workers   int      // Documents in flight, default 1

	// Skip holds content hashes that are already indexed.
	Skip map[string]bool

	// OnResult is called after each document is indexed. Calls are
	// serialized.
	OnResult func(*Result)

	Logger *slog.Logger
}

// Summary describes a finished batch.
type Summary struct {
	Discovered int           `json:"discovered" yaml:"discovered"`
	Processed  int           `json:"processed" yaml:"processed"`
	Skipped    int           `json:"skipped" yaml:"skipped"`
	Tags       int           `json:"tags" yaml:"tags"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Results    []*Result     `json:"results" yaml:"results"`
}

// Record converts a result into its index line relative to root.
func Record(root string, r *Result) index.Record {
	return index.Record{
		Supervisor: r.Supervisor,
		Path:       ingest.RelPath(root, r.Path),
		Tags:       r.Tags,
		Hash:       r.Hash,
	}
}

// Run extracts every path. Documents are independent and may finish in any
// order. The first extraction or index error cancels the remaining work and
// is returned together with the partial summary.
func (b *Batch) Run(ctx context.Context, paths []string) (*Summary, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = 1
	}

	start := time.Now()
	summary := &Summary{Discovered: len(paths)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		if len(b.Skip) > 0 {
			if hash := ingest.HashFile(path); hash != "" && b.Skip[hash] {
				logger.Debug("skipping indexed document", "path", path)
				mu.Lock()
				summary.Skipped++
				mu.Unlock()
				continue
			}
		}

		g.Go(func() error {
			r, err := b.Extractor.ExtractFile(gctx, path)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if b.Index != nil {
				if err := b.Index.Append(Record(b.Root, r)); err != nil {
					return fmt.Errorf("index %s: %w", path, err)
				}
			}
			summary.Processed++
			summary.Tags += len(r.Tags)
			summary.Results = append(summary.Results, r)
			if b.OnResult != nil {
				b.OnResult(r)
			}
			return nil
		})
	}

	err := g.Wait()
	summary.Duration = time.Since(start)
	if err == nil {
		err = ctx.Err()
	}
	return summary, err
}
