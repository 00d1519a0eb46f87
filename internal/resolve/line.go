package resolve

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/ShayCichocki/toolroute/pkg/models"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	indexColor  = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

// LineChannel prompts on a line-oriented terminal and re-prompts until the
// input is a valid selection or the user cancels. Input is read one line per
// prompt, so nothing is consumed between calls to Choose.
type LineChannel struct {
	out io.Writer
	in  *bufio.Reader

	mu sync.Mutex
	// pending holds a read started by a Choose that returned before it completed.
	pending chan lineResult
	eof     bool
}

type lineResult struct {
	text string
	err  error
}

// NewLineChannel creates a channel reading answers from in and writing prompts to out.
func NewLineChannel(in io.Reader, out io.Writer) *LineChannel {
	return &LineChannel{
		out: out,
		in:  bufio.NewReader(in),
	}
}

// Choose implements Channel.
func (l *LineChannel) Choose(ctx context.Context, setIndex int, available []models.ProviderDescriptor) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	headerColor.Fprintf(l.out, "\nSeveral apps can handle part %d of this task:\n", setIndex+1)
	for i, p := range available {
		indexColor.Fprintf(l.out, "  %d) ", i+1)
		fmt.Fprintf(l.out, "%s", p.Name)
		if p.Description != "" {
			dimColor.Fprintf(l.out, " - %s", p.Description)
		}
		fmt.Fprintln(l.out)
	}

	for {
		fmt.Fprint(l.out, "Choose numbers separated by commas, \"all\", or \"q\" to cancel: ")

		line, ok := l.readLine(ctx)
		if !ok {
			fmt.Fprintln(l.out)
			return nil, ErrCancelled
		}
		if isCancelWord(line) {
			return nil, ErrCancelled
		}

		ids, err := ParseSelection(setIndex, line, available)
		var inputErr *ResolutionInputError
		if errors.As(err, &inputErr) {
			errorColor.Fprintf(l.out, "  %s\n", inputErr.Reason)
			continue
		}
		if err != nil {
			return nil, err
		}
		return ids, nil
	}
}

// readLine waits for the next input line. The read runs in its own goroutine
// so ctx can interrupt the wait; an interrupted read is picked up by the next
// call. ok is false on cancellation or end of input.
func (l *LineChannel) readLine(ctx context.Context) (string, bool) {
	if l.eof {
		return "", false
	}
	if l.pending == nil {
		res := make(chan lineResult, 1)
		go func() {
			text, err := l.in.ReadString('\n')
			res <- lineResult{text: text, err: err}
		}()
		l.pending = res
	}

	select {
	case <-ctx.Done():
		return "", false
	case r := <-l.pending:
		l.pending = nil
		if r.err != nil {
			l.eof = true
		}
		if r.text == "" {
			return "", false
		}
		return r.text, true
	}
}
