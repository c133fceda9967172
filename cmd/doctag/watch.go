package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/doctag/internal/api"
	"github.com/jackzampolin/doctag/internal/config"
	"github.com/jackzampolin/doctag/internal/extract"
	"github.com/jackzampolin/doctag/internal/index"
	"github.com/jackzampolin/doctag/internal/ingest"
)

var (
	watchRoot   string
	watchSettle time.Duration
	watchOpts   pipelineFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index existing documents, then keep indexing new and changed ones",
	Long: `Process every document under the root folder that is not yet in the
index, then watch the folder and process documents as they are added or saved.

Config file changes (segmentation, supervisors, annotator) apply to the next
document without a restart. A model failure stops the watch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := slog.Default()

		cm, h, err := loadConfig()
		if err != nil {
			return err
		}
		cfg, err := watchOpts.apply(cmd, cm.Get())
		if err != nil {
			return err
		}

		root, err := filepath.Abs(watchRoot)
		if err != nil {
			return fmt.Errorf("invalid root: %w", err)
		}
		paths, err := ingest.Discover(root)
		if err != nil {
			return err
		}

		p, err := newPipeline(cfg, watchOpts.preannotated, h, uuid.NewString(), logger)
		if err != nil {
			return err
		}
		defer p.Close()

		cm.OnChange(func(c *config.Config) {
			next, err := watchOpts.apply(cmd, c)
			if err == nil {
				err = p.Reload(next)
			}
			if err != nil {
				logger.Warn("ignoring config change", "error", err)
				return
			}
			logger.Info("config reloaded", "mode", next.Segment.Mode)
		})
		cm.OnError(func(err error) {
			logger.Warn("ignoring invalid config change", "error", err)
		})
		cm.WatchConfig()

		// The index file name is fixed for the lifetime of the watch.
		indexPath := filepath.Join(root, cfg.Index.FileName)
		records, err := index.Load(indexPath)
		if err != nil {
			return err
		}
		seen := index.Hashes(records)
		w, err := index.OpenWriter(indexPath)
		if err != nil {
			return err
		}
		defer w.Close()

		text := !api.IsStructuredOutput()
		report := func(r *extract.Result) {
			if text {
				api.FormatResult(os.Stdout, r.Supervisor, ingest.RelPath(root, r.Path), len(r.Tags))
			} else if err := api.Output(extract.Record(root, r)); err != nil {
				logger.Warn("failed to write output", "error", err)
			}
		}

		batch := &extract.Batch{
			Extractor: p.Extractor(),
			Root:      root,
			Index:     w,
			Workers:   cfg.Workers,
			Skip:      seen,
			OnResult:  report,
			Logger:    logger,
		}
		summary, err := batch.Run(ctx, paths)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("initial pass stopped: %w", err)
		}
		for _, r := range summary.Results {
			seen[r.Hash] = true
		}
		logger.Info("initial pass complete",
			"processed", summary.Processed, "skipped", summary.Skipped, "tags", summary.Tags)

		watcher := &ingest.Watcher{Root: root, Settle: watchSettle, Logger: logger}
		return watcher.Watch(ctx, func(path string) error {
			hash := ingest.HashFile(path)
			if hash == "" || seen[hash] {
				return nil
			}
			r, err := p.Extractor().ExtractFile(ctx, path)
			if err != nil {
				return fmt.Errorf("watch stopped: %w", err)
			}
			if err := w.Append(extract.Record(root, r)); err != nil {
				return err
			}
			seen[hash] = true
			report(r)
			return nil
		})
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchRoot, "root", "r", ".", "root folder to watch")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", ingest.DefaultSettle, "wait for a document to stop changing before processing it")
	watchOpts.register(watchCmd)
}
