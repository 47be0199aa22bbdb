// Package observability provides formatted terminal output for batch runs.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/resume-grounder/internal/budget"
	"github.com/jonathan/resume-grounder/internal/pipeline"
	"github.com/jonathan/resume-grounder/internal/types"
)

const (
	// maxLineWidth is the longest content line rendered inside a box
	maxLineWidth = 96
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer renders job results and batch summaries
type Printer struct {
	out    io.Writer
	box    lipgloss.Style
	title  lipgloss.Style
	status map[pipeline.Status]lipgloss.Style
	dim    lipgloss.Style
}

// NewPrinter creates a new Printer that writes to the given writer. Colors are
// only emitted when the writer is a terminal.
func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	good := r.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	bad := r.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	skip := r.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	return &Printer{
		out:   out,
		box:   r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1),
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("245")),
		status: map[pipeline.Status]lipgloss.Style{
			pipeline.StatusAccepted:           good,
			pipeline.StatusRejected:           bad,
			pipeline.StatusSkippedUnparseable: skip,
			pipeline.StatusSkippedTruncated:   skip,
			pipeline.StatusSkippedTransient:   skip,
			pipeline.StatusSkippedError:       skip,
		},
	}
}

// printBox prints a bordered box with a title and content
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) printBox(title, content string) {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for i, line := range lines {
		lines[i] = clip(line, maxLineWidth)
	}
	body := p.title.Render(title) + "\n\n" + strings.Join(lines, "\n")
	fmt.Fprintln(p.out, p.box.Render(body))
}

func clip(line string, n int) string {
	runes := []rune(line)
	if len(runes) <= n {
		return line
	}
	return string(runes[:n-3]) + "..."
}

func (p *Printer) renderStatus(s pipeline.Status) string {
	style, ok := p.status[s]
	if !ok {
		return strings.ToUpper(string(s))
	}
	return style.Render(strings.ToUpper(string(s)))
}

// writeList writes at most maxItemsToShow items under a heading
func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s (%d):\n", heading, len(items))
	count := min(len(items), maxItemsToShow)
	for _, item := range items[:count] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

// PrintJobResult outputs the verdict for one job
func (p *Printer) PrintJobResult(result *pipeline.JobResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Company:  %s\n", result.Job.Company)
	fmt.Fprintf(&sb, "Role:     %s\n", result.Job.JobTitle)
	fmt.Fprintf(&sb, "Status:   %s\n", p.renderStatus(result.Status))
	if result.Model != "" {
		fmt.Fprintf(&sb, "Model:    %s (%d tokens)\n", result.Model, result.Tokens)
	}
	if result.Reason != "" {
		fmt.Fprintf(&sb, "Reason:   %s\n", result.Reason)
	}
	if s := result.Scoring; s != nil {
		fmt.Fprintf(&sb, "Score:    %.1f → %s\n", s.OverallScore, s.Recommendation)
	}

	if o := result.Outcome; o != nil {
		sb.WriteString("\n")
		writeList(&sb, "Errors", o.Errors)
		writeList(&sb, "Warnings", o.Warnings)
		for _, field := range types.SortedKeys(o.Fixes) {
			fmt.Fprintf(&sb, "Fixed %s: %s\n", field, o.Fixes[field])
		}
	}

	if d := result.Draft; d != nil {
		sb.WriteString("\n")
		if text, ok := d.BioText(); ok {
			fmt.Fprintf(&sb, "Bio: %s\n", text)
		}
		for _, exp := range d.Experiences {
			fmt.Fprintf(&sb, "%s @ %s: %d bullets\n", exp.Title, exp.Company, len(exp.Bullets))
		}
	}

	p.printBox("JOB "+result.Key, sb.String())
}

// PrintBatchReport outputs the summary of a batch run
func (p *Printer) PrintBatchReport(report *pipeline.BatchReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:       %s\n", report.RunID)
	fmt.Fprintf(&sb, "Processed: %d (pending %d)\n", len(report.Results), report.Pending)
	for _, status := range []pipeline.Status{
		pipeline.StatusAccepted,
		pipeline.StatusRejected,
		pipeline.StatusSkippedUnparseable,
		pipeline.StatusSkippedTruncated,
		pipeline.StatusSkippedTransient,
		pipeline.StatusSkippedError,
	} {
		if n := report.Count(status); n > 0 {
			fmt.Fprintf(&sb, "  %-22s %d\n", status, n)
		}
	}
	fmt.Fprintf(&sb, "Tokens:    %d\n", report.TokensUsed)
	if report.Stopped != pipeline.StopNone {
		fmt.Fprintf(&sb, "Stopped:   %s\n", report.Stopped)
	}
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "Duration:  %s\n", p.dim.Render(report.FinishedAt.Sub(report.StartedAt).Round(1e6).String()))
	}

	p.printBox("BATCH SUMMARY", sb.String())
}

// PrintBudget outputs token usage against the limits
func (p *Printer) PrintBudget(total int64, limits budget.Limits) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Used today:        %d\n", total)
	fmt.Fprintf(&sb, "Warning threshold: %d\n", limits.WarningThreshold)
	fmt.Fprintf(&sb, "Daily limit:       %d\n", limits.DailyLimit)
	fmt.Fprintf(&sb, "Remaining:         %d\n", max(limits.DailyLimit-total, 0))
	if total >= limits.DailyLimit {
		sb.WriteString("Budget exhausted\n")
	}
	p.printBox("TOKEN BUDGET", sb.String())
}

// PrintProgress outputs one progress line
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	fmt.Fprintf(p.out, "%s %s\n", p.dim.Render("["+event.JobKey+"] "+event.Step+":"), event.Message)
}
