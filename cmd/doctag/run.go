package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/doctag/internal/api"
	"github.com/jackzampolin/doctag/internal/extract"
	"github.com/jackzampolin/doctag/internal/index"
	"github.com/jackzampolin/doctag/internal/ingest"
	"github.com/jackzampolin/doctag/internal/llmcall"
)

var (
	runRoot        string
	runSkipIndexed bool
	runOpts        pipelineFlags
)

// runReport is the structured output of the run command.
type runReport struct {
	RunID   string           `json:"run_id" yaml:"run_id"`
	Root    string           `json:"root" yaml:"root"`
	Index   string           `json:"index" yaml:"index"`
	Summary *extract.Summary `json:"summary" yaml:"summary"`
	Calls   llmcall.Totals   `json:"calls" yaml:"calls"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract tags from every document under a root folder",
	Long: `Walk the root folder for .docx files, extract tags and supervisors,
and append one line per document to the index file in the root folder.

A model failure stops the run. Lines already written stay in the index, so
a rerun with --skip-indexed continues where it stopped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := slog.Default()

		cm, h, err := loadConfig()
		if err != nil {
			return err
		}
		cfg, err := runOpts.apply(cmd, cm.Get())
		if err != nil {
			return err
		}

		root, err := filepath.Abs(runRoot)
		if err != nil {
			return fmt.Errorf("invalid root: %w", err)
		}
		paths, err := ingest.Discover(root)
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		p, err := newPipeline(cfg, runOpts.preannotated, h, runID, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		indexPath := filepath.Join(root, cfg.Index.FileName)
		var skip map[string]bool
		if runSkipIndexed {
			records, err := index.Load(indexPath)
			if err != nil {
				return err
			}
			skip = index.Hashes(records)
		}
		w, err := index.OpenWriter(indexPath)
		if err != nil {
			return err
		}
		defer w.Close()

		text := !api.IsStructuredOutput()
		batch := &extract.Batch{
			Extractor: p.Extractor(),
			Root:      root,
			Index:     w,
			Workers:   cfg.Workers,
			Skip:      skip,
			Logger:    logger,
		}
		if text {
			api.FormatHeader(os.Stdout, api.RunHeader{
				Root:      root,
				Mode:      cfg.Segment.Mode,
				Annotator: p.AnnotatorName(),
				Workers:   max(cfg.Workers, 1),
				Index:     indexPath,
			})
			batch.OnResult = func(r *extract.Result) {
				api.FormatResult(os.Stdout, r.Supervisor, ingest.RelPath(root, r.Path), len(r.Tags))
			}
		}

		logger.Info("starting run", "run_id", runID, "root", root, "documents", len(paths))
		summary, runErr := batch.Run(ctx, paths)
		if summary == nil {
			summary = &extract.Summary{Discovered: len(paths)}
		}
		calls := p.recorder.Totals()

		if text {
			api.PrintSummary(os.Stdout, api.RunTotals{
				Discovered:   summary.Discovered,
				Processed:    summary.Processed,
				Skipped:      summary.Skipped,
				Tags:         summary.Tags,
				Duration:     summary.Duration,
				Calls:        calls.Calls,
				InputTokens:  calls.InputTokens,
				OutputTokens: calls.OutputTokens,
				Err:          runErr,
			})
		} else {
			report := runReport{RunID: runID, Root: root, Index: indexPath, Summary: summary, Calls: calls}
			if runErr != nil {
				report.Error = runErr.Error()
			}
			if err := api.Output(report); err != nil {
				return err
			}
		}

		if runErr != nil {
			return fmt.Errorf("run stopped: %w", runErr)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runRoot, "root", "r", ".", "root folder to scan for .docx files")
	runCmd.Flags().BoolVar(&runSkipIndexed, "skip-indexed", false, "skip documents whose hash is already in the index")
	runOpts.register(runCmd)
}
