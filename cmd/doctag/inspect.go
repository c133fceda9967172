package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/doctag/internal/api"
	"github.com/jackzampolin/doctag/internal/docx"
	"github.com/jackzampolin/doctag/internal/extract"
	"github.com/jackzampolin/doctag/internal/ingest"
	"github.com/jackzampolin/doctag/internal/mainbody"
	"github.com/jackzampolin/doctag/internal/providers"
	"github.com/jackzampolin/doctag/internal/tags"
)

var (
	inspectChunks bool
	inspectOpts   pipelineFlags
)

// inspectReport describes how a document would be processed.
type inspectReport struct {
	Path       string         `json:"path" yaml:"path"`
	Hash       string         `json:"hash" yaml:"hash"`
	Source     docx.Source    `json:"source" yaml:"source"`
	Paragraphs int            `json:"paragraphs" yaml:"paragraphs"`
	Links      int            `json:"links" yaml:"links"`
	Range      mainbody.Range `json:"range" yaml:"range"`
	Strategy   string         `json:"strategy" yaml:"strategy"`
	FirstPage  string         `json:"first_page" yaml:"first_page"`
	Supervisor string         `json:"supervisor" yaml:"supervisor"`
	MainChars  int            `json:"main_chars" yaml:"main_chars"`
	Mode       string         `json:"mode" yaml:"mode"`
	ChunkCount int            `json:"chunk_count" yaml:"chunk_count"`
	Chunks     []string       `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	MarkupTags []string       `json:"markup_tags" yaml:"markup_tags"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.docx>",
	Short: "Show the main body, supervisor and chunks of one document",
	Long: `Analyze a single document without calling the annotation model:
which locator chose the main-body range, the first page text, the detected
supervisor, how the main text would be chunked, and any tags already present
as [X*]...[*X] markup.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, _, err := loadConfig()
		if err != nil {
			return err
		}
		cfg, err := inspectOpts.apply(cmd, cm.Get())
		if err != nil {
			return err
		}
		opts, err := cfg.SegmentOptions()
		if err != nil {
			return err
		}

		// Analyze never calls the annotator; it only needs one to build chunks.
		ext := extract.New(extract.Config{
			Segment:   opts,
			Annotator: providers.NewMockAnnotator(),
			Detector:  cfg.Detector(),
			Logger:    slog.Default(),
		})

		path := args[0]
		a := ext.Analyze(path)
		report := inspectReport{
			Path:       path,
			Hash:       ingest.HashFile(path),
			Source:     a.Document.Source,
			Paragraphs: len(a.Document.Paragraphs),
			Links:      len(a.Document.Links),
			Range:      a.Selection.Range,
			Strategy:   a.Selection.Strategy,
			FirstPage:  a.FirstPage,
			Supervisor: a.Supervisor,
			MainChars:  len([]rune(a.MainText)),
			Mode:       cfg.Segment.Mode,
			ChunkCount: len(a.Chunks),
			MarkupTags: tags.Extract(a.MainText),
		}
		if inspectChunks {
			report.Chunks = a.Chunks
		}
		if report.MarkupTags == nil {
			report.MarkupTags = []string{}
		}
		return api.Output(report)
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectChunks, "chunks", false, "include chunk text")
	inspectOpts.register(inspectCmd)
}
