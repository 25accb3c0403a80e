// Package diagnostics parses GCC/Clang-style compiler output into
// structured model.Diagnostic values, dispatching line by line in the
// order: a location-prefixed "path:line:col: severity: message" opens a new
// primary diagnostic; a note/"In file included from" line attaches as a
// trailing detail of the most recent primary; a bare "Error:"/"Warning:"
// line with no location opens a primary with no known position.
package diagnostics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vkbuild/ubuild/internal/model"
)

var primaryLineRE = regexp.MustCompile(`^([^:\s][^:]*):(\d+):(\d+):\s*(error|warning|note):\s*(.*)$`)
var bareLineRE = regexp.MustCompile(`^(Error|Warning):\s*(.*)$`)
var includedFromRE = regexp.MustCompile(`^(?:In file included from\s+)?([^:\s][^:]*):(\d+)(?::(\d+))?[,:]?\s*$`)

// Parse splits raw compiler stderr/stdout text into a list of primary
// diagnostics, each with any immediately-following note/included-from lines
// attached as Details.
func Parse(output string) []model.Diagnostic {
	var result []model.Diagnostic
	var current *model.Diagnostic
	var pending []model.Diagnostic // notes seen before any primary diagnostic exists yet

	flushPending := func(target *model.Diagnostic) {
		if len(pending) == 0 {
			return
		}
		target.Details = append(target.Details, pending...)
		pending = nil
	}

	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := primaryLineRE.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			col, _ := strconv.Atoi(m[3])
			d := model.Diagnostic{
				File:     m[1],
				Line:     lineNo,
				Column:   col,
				Severity: severityFromWord(m[4]),
				Message:  m[5],
			}
			if d.Severity == model.SeverityNote {
				// a located "note:" elaborates on the open primary rather than opening one
				attachNote(current, &pending, d)
				continue
			}
			flushPending(&d)
			if current != nil {
				result = append(result, *current)
			}
			current = &d
			continue
		}

		if m := includedFromRE.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			note := model.Diagnostic{File: m[1], Line: lineNo, Severity: model.SeverityNote, Message: strings.TrimSpace(line)}
			attachNote(current, &pending, note)
			continue
		}

		if m := bareLineRE.FindStringSubmatch(line); m != nil {
			d := model.Diagnostic{
				Line:     -1,
				Column:   -1,
				Severity: severityFromWord(strings.ToLower(m[1])),
				Message:  m[2],
			}
			flushPending(&d)
			if current != nil {
				result = append(result, *current)
			}
			current = &d
			continue
		}

		// an indented continuation line (caret markers, source snippets,
		// "note:" without a location) attaches to whatever is open.
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") || strings.HasPrefix(strings.TrimSpace(line), "note:") {
			note := model.Diagnostic{Line: -1, Column: -1, Severity: model.SeverityNote, Message: strings.TrimSpace(line)}
			attachNote(current, &pending, note)
			continue
		}
	}

	if current != nil {
		flushPending(current)
		result = append(result, *current)
	}

	return result
}

func attachNote(current *model.Diagnostic, pending *[]model.Diagnostic, note model.Diagnostic) {
	if current != nil {
		current.Details = append(current.Details, note)
		return
	}
	*pending = append(*pending, note)
}

func severityFromWord(word string) model.Severity {
	switch word {
	case "error", "Error":
		return model.SeverityError
	case "warning", "Warning":
		return model.SeverityWarning
	default:
		return model.SeverityNote
	}
}

// HasErrors reports whether any parsed diagnostic (or its details) is at
// error severity, the signal the scheduler uses to mark a chunk build
// failed even when the compiler's own exit code was, unusually, zero.
func HasErrors(diags []model.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == model.SeverityError {
			return true
		}
		for _, detail := range d.Details {
			if detail.Severity == model.SeverityError {
				return true
			}
		}
	}
	return false
}
