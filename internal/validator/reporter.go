package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/thoreinstein/miuitask/internal/errors"
)

// Format specifies the output format for validation reports.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// Reporter formats and writes validation results.
type Reporter struct {
	out    io.Writer
	format Format
}

// NewReporter creates a new Reporter.
func NewReporter(out io.Writer, format Format) *Reporter {
	return &Reporter{
		out:    out,
		format: format,
	}
}

// Report writes the validation result to the output.
func (r *Reporter) Report(result *Result) error {
	if result == nil {
		return nil
	}

	switch r.format {
	case FormatJSON:
		return r.reportJSON(result)
	default:
		return r.reportText(result)
	}
}

func (r *Reporter) reportJSON(result *Result) error {
	out := *result
	if out.Issues == nil {
		out.Issues = []Issue{}
	}
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(out), "encoding JSON report")
}

func (r *Reporter) reportText(result *Result) error {
	errs := result.Errors()
	warnings := result.Warnings()

	if len(errs) == 0 {
		fmt.Fprintf(r.out, "%s %s (%s, %d account(s))\n",
			color.GreenString("✓"), result.Path, result.Format, result.Accounts)
	} else {
		summary := []string{color.RedString("%d error(s)", len(errs))}
		if len(warnings) > 0 {
			summary = append(summary, color.YellowString("%d warning(s)", len(warnings)))
		}
		fmt.Fprintf(r.out, "%s %s: %s\n", color.RedString("✗"), result.Path, strings.Join(summary, ", "))
	}

	for _, issue := range errs {
		r.printIssue(issue, color.FgRed)
	}
	for _, issue := range warnings {
		r.printIssue(issue, color.FgYellow)
	}
	return nil
}

func (r *Reporter) printIssue(i Issue, c color.Attribute) {
	printer := color.New(c).SprintFunc()

	var sb strings.Builder
	sb.WriteString("  • ")
	sb.WriteString(printer(i.Severity.String()))
	sb.WriteString(" ")
	if i.Field != "" {
		sb.WriteString(i.Field)
		sb.WriteString(": ")
	}
	sb.WriteString(i.Message)

	fmt.Fprintln(r.out, sb.String())
}
