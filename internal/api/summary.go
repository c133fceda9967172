package api

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// RunHeader describes a run before it starts.
type RunHeader struct {
	Root      string
	Mode      string
	Annotator string // "" in pre-annotated mode
	Workers   int
	Index     string
}

// RunTotals describes a finished run.
type RunTotals struct {
	Discovered   int
	Processed    int
	Skipped      int
	Tags         int
	Duration     time.Duration
	Calls        int
	InputTokens  int
	OutputTokens int
	Err          error
}

// FormatHeader renders the run configuration box.
func FormatHeader(w io.Writer, h RunHeader) {
	annotator := h.Annotator
	if annotator == "" {
		annotator = "pre-annotated"
	}
	content := fmt.Sprintf("%s %s\n%s %s  %s %s  %s %d\n%s %s",
		dimStyle.Render("Root:"), h.Root,
		dimStyle.Render("Mode:"), titleStyle.Render(h.Mode),
		dimStyle.Render("Annotator:"), titleStyle.Render(annotator),
		dimStyle.Render("Workers:"), h.Workers,
		dimStyle.Render("Index:"), h.Index,
	)
	fmt.Fprintln(w, headerBoxStyle.Render(content))
}

// FormatResult renders one processed document.
func FormatResult(w io.Writer, supervisor, relPath string, tags int) {
	fmt.Fprintf(w, "%s %s %s\n",
		successStyle.Render("✓"),
		relPath,
		dimStyle.Render(fmt.Sprintf("(%s, %d tags)", supervisor, tags)),
	)
}

// PrintSummary renders the run summary box.
func PrintSummary(w io.Writer, t RunTotals) {
	status := successStyle.Render("OK")
	if t.Err != nil {
		status = errorStyle.Render("ERROR")
	}

	lines := []string{
		titleStyle.Render("Run Complete"),
		fmt.Sprintf("%s %d  %s %d  %s %d  %s %d",
			dimStyle.Render("Found:"), t.Discovered,
			dimStyle.Render("Processed:"), t.Processed,
			dimStyle.Render("Skipped:"), t.Skipped,
			dimStyle.Render("Tags:"), t.Tags,
		),
	}
	if t.Calls > 0 {
		lines = append(lines, fmt.Sprintf("%s %d  %s %s in %s %s out",
			dimStyle.Render("Calls:"), t.Calls,
			dimStyle.Render("Tokens:"), formatNumber(t.InputTokens),
			dimStyle.Render("->"), formatNumber(t.OutputTokens),
		))
	}
	lines = append(lines, fmt.Sprintf("%s %.1fs  %s",
		dimStyle.Render("Duration:"), t.Duration.Seconds(), status))
	if t.Err != nil {
		lines = append(lines, errorStyle.Render(t.Err.Error()))
	}

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// formatNumber adds thousands separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
