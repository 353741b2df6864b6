package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const (
	successLinePrefixConstant    = "✓"
	pendingLinePrefixConstant    = "○"
	skippedLinePrefixConstant    = "·"
	failureLinePrefixConstant    = "✗"
	prefixedLineTemplateConstant = "%s %s\n"
	plainLineTemplateConstant    = "%s\n"
)

// RunReporter renders collaborator reconciliation progress as colored status lines.
type RunReporter struct {
	writer       io.Writer
	successColor *color.Color
	pendingColor *color.Color
	skippedColor *color.Color
	failureColor *color.Color
	headingColor *color.Color
}

// NewRunReporter constructs a reporter writing to the supplied writer.
func NewRunReporter(writer io.Writer) *RunReporter {
	return &RunReporter{
		writer:       writer,
		successColor: color.New(color.FgGreen),
		pendingColor: color.New(color.FgCyan),
		skippedColor: color.New(color.Faint),
		failureColor: color.New(color.FgRed),
		headingColor: color.New(color.Bold),
	}
}

// Success reports a completed mutation.
func (reporter *RunReporter) Success(format string, arguments ...any) {
	reporter.printPrefixed(reporter.successColor, successLinePrefixConstant, format, arguments...)
}

// Pending reports a mutation that a dry run would have issued.
func (reporter *RunReporter) Pending(format string, arguments ...any) {
	reporter.printPrefixed(reporter.pendingColor, pendingLinePrefixConstant, format, arguments...)
}

// Skip reports an entry that required no action.
func (reporter *RunReporter) Skip(format string, arguments ...any) {
	reporter.printPrefixed(reporter.skippedColor, skippedLinePrefixConstant, format, arguments...)
}

// Failure reports a per-item failure.
func (reporter *RunReporter) Failure(format string, arguments ...any) {
	reporter.printPrefixed(reporter.failureColor, failureLinePrefixConstant, format, arguments...)
}

// Header renders a bold section heading.
func (reporter *RunReporter) Header(format string, arguments ...any) {
	fmt.Fprintf(reporter.writer, plainLineTemplateConstant, reporter.headingColor.Sprintf(format, arguments...))
}

// Line renders an uncolored line.
func (reporter *RunReporter) Line(format string, arguments ...any) {
	fmt.Fprintf(reporter.writer, plainLineTemplateConstant, fmt.Sprintf(format, arguments...))
}

func (reporter *RunReporter) printPrefixed(lineColor *color.Color, linePrefix string, format string, arguments ...any) {
	fmt.Fprintf(reporter.writer, prefixedLineTemplateConstant, lineColor.Sprint(linePrefix), fmt.Sprintf(format, arguments...))
}
