package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"billmailer/internal/dispatch"
	"billmailer/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

// statusStyles maps each kind to its bracketed tag and terminal colour.
var statusStyles = map[statusKind]struct{ tag, color string }{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const statusLabelWidth = 20

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	line := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.tag)
	if message != "" {
		line += " " + message
	}
	if !colorize {
		return line
	}
	return style.color + line + ansiReset
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	lines := []string{line, strings.Repeat("-", len(line))}
	if colorize {
		color := statusStyles[statusInfo].color
		for i := range lines {
			lines[i] = color + lines[i] + ansiReset
		}
	}
	return lines
}

// shouldColorize reports whether w is a terminal.
func shouldColorize(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// resultLine renders one dispatch outcome as it happens during `send`.
func resultLine(res dispatch.Result, colorize bool) string {
	label := entryLabel(res)
	switch res.Outcome {
	case dispatch.Sent:
		return renderStatusLine(label, statusOK,
			fmt.Sprintf("sent to %s (%s)", res.Entry.Email, pluralize(res.Attachments, "attachment")), colorize)
	case dispatch.SkippedNoMatch:
		return renderStatusLine(label, statusWarn, "skipped: "+res.Reason(), colorize)
	default:
		return renderStatusLine(label, statusError, "failed: "+res.Reason(), colorize)
	}
}

func entryLabel(res dispatch.Result) string {
	if key := res.Entry.Key.String(); key != "" {
		return key
	}
	if raw := strings.TrimSpace(res.Entry.Raw); raw != "" {
		return raw
	}
	return fmt.Sprintf("row %d", res.Entry.Row)
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
