// Package observability provides formatted output utilities for verbose CLI
// mode and structured logging setup.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jordan/content-forge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxQuotesToShow is the default number of quotes to display
	maxQuotesToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintEvidence outputs a human-readable summary of the evidence bundle.
func (p *Printer) PrintEvidence(bundle *types.EvidenceBundle) {
	if bundle == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Level:    %s\n", bundle.Level))
	sb.WriteString(fmt.Sprintf("Posts:    %d\n", bundle.PostCount))
	if bundle.Synthesized {
		sb.WriteString("Source:   synthesized from model knowledge\n")
	}
	if len(bundle.Quotes) > 0 {
		sb.WriteString("\nQuotes:\n")
		count := min(len(bundle.Quotes), maxQuotesToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", bundle.Quotes[i].Text))
		}
		if len(bundle.Quotes) > maxQuotesToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(bundle.Quotes)-maxQuotesToShow))
		}
	}

	p.printBox("EVIDENCE BUNDLE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScores outputs one variant's score breakdown against its thresholds.
func (p *Printer) PrintScores(label string, scores *types.ScoreResult, thresholds types.ScoringThresholds) {
	if scores == nil {
		return
	}
	t := thresholds.WithDefaults()

	var sb strings.Builder
	row := func(name string, value, bound float64, ceiling bool) {
		op := "≥"
		ok := value >= bound
		if ceiling {
			op = "≤"
			ok = value <= bound
		}
		mark := "✓"
		if !ok {
			mark = "✗"
		}
		sb.WriteString(fmt.Sprintf("%-14s %5.1f  (%s %.1f) %s\n", name, value, op, bound, mark))
	}

	row("Slop", scores.Slop, t.SlopMax, true)
	row("Vendor-speak", scores.VendorSpeak, t.VendorSpeakMax, true)
	row("Authenticity", scores.Authenticity, t.AuthenticityMin, false)
	row("Specificity", scores.Specificity, t.SpecificityMin, false)
	row("Persona", scores.PersonaAvg, t.PersonaMin, false)
	row("Narrative", scores.NarrativeArc, t.NarrativeArcMin, false)

	if scores.Health.FailedCount() > 0 {
		sb.WriteString(fmt.Sprintf("\nDegraded scorers: %s\n", strings.Join(scores.Health.Failed, ", ")))
	}

	p.printBox("SCORES "+label, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobSummary outputs the final job state and variant tally.
func (p *Printer) PrintJobSummary(job *types.Job, variants []*types.Variant) {
	if job == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n", job.ID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", job.Status))
	sb.WriteString(fmt.Sprintf("Steps:    %d\n", len(job.StepEvents)))
	if job.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Error:    %s\n", job.ErrorMessage))
	}

	passing := 0
	review := 0
	for _, v := range variants {
		if v.PassesGates {
			passing++
		}
		if v.NeedsReview {
			review++
		}
	}
	sb.WriteString(fmt.Sprintf("\nVariants: %d (%d passing gates", len(variants), passing))
	if review > 0 {
		sb.WriteString(fmt.Sprintf(", %d flagged for review", review))
	}
	sb.WriteString(")\n")

	p.printBox("JOB SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
