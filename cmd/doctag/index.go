package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/doctag/internal/api"
	"github.com/jackzampolin/doctag/internal/index"
)

var (
	indexRoot       string
	indexSupervisor string
)

// indexReport is the parsed index, optionally filtered by supervisor.
type indexReport struct {
	File        string         `json:"file" yaml:"file"`
	Documents   int            `json:"documents" yaml:"documents"`
	Supervisors map[string]int `json:"supervisors" yaml:"supervisors"`
	Tags        []tagCount     `json:"tags" yaml:"tags"`
	Records     []index.Record `json:"records" yaml:"records"`
}

type tagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Read back the tag index of a root folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, _, err := loadConfig()
		if err != nil {
			return err
		}
		path := filepath.Join(indexRoot, cm.Get().Index.FileName)

		records, err := index.Load(path)
		if err != nil {
			return err
		}
		if records == nil {
			return fmt.Errorf("no index at %s", path)
		}
		return api.Output(summarizeIndex(path, records, indexSupervisor))
	},
}

// summarizeIndex counts documents per supervisor and documents per tag.
// Tags are ordered by count, then alphabetically.
func summarizeIndex(path string, records []index.Record, supervisor string) indexReport {
	report := indexReport{File: path, Supervisors: make(map[string]int), Records: []index.Record{}}
	counts := make(map[string]int)
	for _, r := range records {
		if supervisor != "" && r.Supervisor != supervisor {
			continue
		}
		report.Documents++
		report.Supervisors[r.Supervisor]++
		report.Records = append(report.Records, r)
		for _, t := range r.Tags {
			counts[t]++
		}
	}

	report.Tags = make([]tagCount, 0, len(counts))
	for t, n := range counts {
		report.Tags = append(report.Tags, tagCount{Tag: t, Count: n})
	}
	sort.Slice(report.Tags, func(i, j int) bool {
		if report.Tags[i].Count != report.Tags[j].Count {
			return report.Tags[i].Count > report.Tags[j].Count
		}
		return report.Tags[i].Tag < report.Tags[j].Tag
	})
	return report
}

func init() {
	indexCmd.Flags().StringVarP(&indexRoot, "root", "r", ".", "root folder holding the index file")
	indexCmd.Flags().StringVar(&indexSupervisor, "supervisor", "", "only show documents of this supervisor")
}
