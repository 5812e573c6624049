package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lecturesync/internal/syncfix"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 18
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + line + ansiReset
		}
	}
	return line
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var roleCaser = cases.Title(language.Und)

// roleLabel renders a role for humans: "presenter" becomes "Presenter".
func roleLabel(role syncfix.Role) string {
	value := strings.TrimSpace(string(role))
	if value == "" {
		return "-"
	}
	return roleCaser.String(value)
}

func renderRunSummary(res syncfix.Result, colorize bool) []string {
	lines := renderSectionHeader("Sync "+string(res.Mode), colorize)
	lines = append(lines,
		renderStatusLine("Presenter", statusInfo, formatInput(res.Presenter), colorize),
		renderStatusLine("Presentation", statusInfo, formatInput(res.Presentation), colorize),
	)

	decisionKind := statusOK
	if res.Decision.FixNeeded() {
		decisionKind = statusWarn
	}
	lines = append(lines,
		renderStatusLine("Sync status", decisionKind, string(res.Decision.Status), colorize),
		renderStatusLine("Defective stream", decisionKind, roleLabel(res.Decision.Defective), colorize),
		renderStatusLine("Offset", decisionKind, res.Decision.FormatOffset()+"s", colorize),
	)

	if res.Mode == syncfix.ModeEvaluateAndFix {
		action := "copied through"
		if res.Decision.FixNeeded() {
			action = "leader padded"
		}
		lines = append(lines, renderStatusLine("Output", statusOK,
			fmt.Sprintf("%s (%d bytes, %s)", res.Output, res.OutputBytes, action), colorize))
	}
	if res.StatusPath != "" {
		lines = append(lines, renderStatusLine("Status record", statusOK, res.StatusPath, colorize))
	}
	lines = append(lines, renderStatusLine("Run", statusInfo,
		fmt.Sprintf("%s (%s)", res.RunID, res.Elapsed.Round(time.Millisecond)), colorize))
	return lines
}

func formatInput(in syncfix.Input) string {
	return fmt.Sprintf("%s (%.3fs audio)", in.Path, in.Duration)
}
