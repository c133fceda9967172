package api

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestOutputTo(t *testing.T) {
	data := map[string]any{"supervisor": "захарова", "tags": []string{"a1"}}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
			t.Fatalf("OutputTo failed: %v", err)
		}
		if !strings.Contains(buf.String(), "supervisor: захарова") {
			t.Errorf("unexpected yaml: %s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
			t.Fatalf("OutputTo failed: %v", err)
		}
		if !strings.Contains(buf.String(), `"tags": [`) {
			t.Errorf("unexpected json: %s", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := OutputTo(&bytes.Buffer{}, OutputFormat("xml"), data); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("text")

	SetOutputFormat("json")
	if GetOutputFormat() != OutputFormatJSON {
		t.Errorf("expected json, got %s", GetOutputFormat())
	}
	if !IsStructuredOutput() {
		t.Error("json should be structured")
	}
	SetOutputFormat("text")
	if IsStructuredOutput() {
		t.Error("text should not be structured")
	}
	SetOutputFormat("toml")
	if GetOutputFormat() != DefaultOutput {
		t.Errorf("expected default for unknown format, got %s", GetOutputFormat())
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, RunTotals{
		Discovered:  3,
		Processed:   2,
		Skipped:     1,
		Tags:        12,
		Duration:    1500 * time.Millisecond,
		Calls:       4,
		InputTokens: 12345,
	})
	out := buf.String()
	for _, want := range []string{"Run Complete", "Processed:", "12,345", "1.5s", "OK"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	PrintSummary(&buf, RunTotals{Err: errors.New("annotator down")})
	if !strings.Contains(buf.String(), "annotator down") || !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("expected error in summary:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Calls:") {
		t.Error("calls line should be omitted without calls")
	}
}

func TestFormatHeaderAndResult(t *testing.T) {
	var buf bytes.Buffer
	FormatHeader(&buf, RunHeader{Root: "/data", Mode: "sentences", Workers: 2, Index: "/data/_tags_index.txt"})
	if !strings.Contains(buf.String(), "pre-annotated") {
		t.Errorf("expected pre-annotated label:\n%s", buf.String())
	}

	buf.Reset()
	FormatResult(&buf, "неизвестно", "a/b.docx", 5)
	if !strings.Contains(buf.String(), "a/b.docx") || !strings.Contains(buf.String(), "5 tags") {
		t.Errorf("unexpected result line: %s", buf.String())
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -1500: "-1,500"}
	for n, want := range tests {
		if got := formatNumber(n); got != want {
			t.Errorf("formatNumber(%d) = %s, want %s", n, got, want)
		}
	}
}
