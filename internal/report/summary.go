// Package report prints a colored, tabular end-of-run build summary,
// replacing the teacher's raw ANSI escape codes
// (internal/client/manage-servers.go's "\033[36m%s\033[0m" style) with
// fatih/color, and the elapsed build time with go-humanize, formatted as a
// table with jedib0t/go-pretty/v6.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vkbuild/ubuild/internal/model"
)

var (
	colorOk   = color.New(color.FgGreen)
	colorFail = color.New(color.FgRed)
	colorName = color.New(color.FgCyan)
)

// PrintProjectSummary writes one table row per project plus a final
// ok/total line, the same shape as the teacher's RequestRemoteStatus
// summary but for local build projects instead of remote nocc-servers.
func PrintProjectSummary(w io.Writer, projects []*model.Project, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Project", "State", "Errors", "Warnings", "Objects"})

	nOk := 0
	for _, p := range projects {
		outcomes := p.Outcomes()
		errs, warns := countSeverities(outcomes)
		done, total := p.Progress()

		state := p.State().String()
		if p.State() == model.StateDone {
			nOk++
			state = colorOk.Sprint(state)
		} else if p.State() == model.StateFailed {
			state = colorFail.Sprint(state)
		}

		t.AppendRow(table.Row{
			colorName.Sprint(p.Name),
			state,
			errs,
			warns,
			fmt.Sprintf("%d/%d", done, total),
		})
	}
	t.Render()

	fmt.Fprintf(w, "\nBuilt in %s\n", humanize.RelTime(time.Now().Add(-elapsed), time.Now(), "", ""))
	if nOk == len(projects) {
		colorOk.Fprintf(w, "ok %d / %d\n", nOk, len(projects))
	} else {
		colorFail.Fprintf(w, "ok %d / %d\n", nOk, len(projects))
	}
}

func countSeverities(outcomes []model.BuildOutcome) (errs, warns int) {
	for _, o := range outcomes {
		for _, d := range o.Diagnostics {
			tallyOne(d, &errs, &warns)
		}
	}
	return
}

func tallyOne(d model.Diagnostic, errs, warns *int) {
	switch d.Severity {
	case model.SeverityError:
		*errs++
	case model.SeverityWarning:
		*warns++
	}
	for _, detail := range d.Details {
		tallyOne(detail, errs, warns)
	}
}

// PrintDiagnostics writes every diagnostic for outcomes that had any, with
// errors in red and warnings in yellow, grouped by target.
func PrintDiagnostics(w io.Writer, outcomes []model.BuildOutcome) {
	for _, o := range outcomes {
		if len(o.Diagnostics) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", o.Target)
		for _, d := range o.Diagnostics {
			printDiagnostic(w, d, 0)
		}
	}
}

func printDiagnostic(w io.Writer, d model.Diagnostic, indent int) {
	prefix := ""
	for i := 0; i < indent; i++ {
		prefix += "  "
	}
	line := fmt.Sprintf("%s%s:%d:%d: %s: %s", prefix, d.File, d.Line, d.Column, d.Severity, d.Message)
	switch d.Severity {
	case model.SeverityError:
		colorFail.Fprintln(w, line)
	case model.SeverityWarning:
		color.New(color.FgYellow).Fprintln(w, line)
	default:
		fmt.Fprintln(w, line)
	}
	for _, detail := range d.Details {
		printDiagnostic(w, detail, indent+1)
	}
}
