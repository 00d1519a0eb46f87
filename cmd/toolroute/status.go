package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ShayCichocki/toolroute/internal/api"
	"github.com/ShayCichocki/toolroute/internal/orchestrator"
)

// statusPrinter renders run progress on a side stream.
type statusPrinter struct {
	out   io.Writer
	quiet bool
}

func newStatusPrinter(out io.Writer, quiet bool) *statusPrinter {
	return &statusPrinter{out: out, quiet: quiet}
}

// Event prints an orchestrator state transition.
func (p *statusPrinter) Event(e orchestrator.Event) {
	if p.quiet {
		return
	}
	symbol, attr := "•", color.FgCyan
	switch e.State {
	case orchestrator.StateReasonOnly:
		symbol, attr = "↺", color.FgYellow
	case orchestrator.StateExecuteWithTools:
		symbol, attr = "▶", color.FgGreen
	}
	fmt.Fprintf(p.out, "%s %s\n", color.New(attr).Sprint(symbol), e.Message)
}

// Stream prints tool activity of the final turn.
func (p *statusPrinter) Stream(ev api.StreamEvent) {
	if p.quiet {
		return
	}
	switch ev.Type {
	case "tool_use":
		fmt.Fprintf(p.out, "  %s %s\n", color.New(color.Faint).Sprint("→"), ev.Tool)
	case "tool_result":
		if ev.IsError {
			fmt.Fprintf(p.out, "  %s %s failed\n", color.RedString("✗"), ev.Tool)
		}
	}
}

// Failure prints a terminal error.
func (p *statusPrinter) Failure(err error) {
	printStatus(p.out, "✗", err.Error(), errColor)
}

const (
	okColor   = color.FgGreen
	warnColor = color.FgYellow
	errColor  = color.FgRed
)

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, attr color.Attribute) {
	fmt.Fprintf(w, "%s %s\n", color.New(attr).Sprint(symbol), message)
}
