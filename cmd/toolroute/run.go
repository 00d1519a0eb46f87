package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/toolroute/internal/resolve"
	"github.com/ShayCichocki/toolroute/pkg/models"
)

var (
	runChoices string
	runPlain   bool
	runQuiet   bool
)

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Answer a task, binding provider tools when it needs them",
	Long: `Run a task through classification, provider resolution, tool loading
and execution.

When several providers could serve the same need you are asked to pick
(an interactive prompt on a terminal, a line prompt otherwise). Answer
"all", a comma-separated list of numbers, or "q" to skip tools entirely.

Use --choices to supply the picks up front, as JSON from a file or "-" for
stdin, in the shape printed by 'toolroute choices':
  {"user_choices": {"1": ["github"]}}`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

func init() {
	runCmd.Flags().StringVar(&runChoices, "choices", "", "Resolution payload file (JSON), or - for stdin")
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "Use the line prompt instead of the interactive picker")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Print only the final answer")
}

func runTask(cmd *cobra.Command, args []string) error {
	task := strings.Join(args, " ")

	var payload *models.ResolutionPayload
	if runChoices != "" {
		p, err := readPayload(runChoices, os.Stdin)
		if err != nil {
			return err
		}
		payload = p
	}

	status := newStatusPrinter(os.Stderr, runQuiet)
	opts := appOptions{
		orchestrator: true,
		onEvent:      status.Event,
		onStream:     status.Stream,
	}
	if payload == nil {
		opts.channel = chooseChannel(runPlain)
	}

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	msg, err := a.orch.Run(ctx, task, payload)
	a.logUsage()
	if err != nil {
		status.Failure(err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), msg.Content)
	return nil
}

// chooseChannel picks the interactive picker on a terminal and the line
// prompt otherwise.
func chooseChannel(plain bool) resolve.Channel {
	if !plain && isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd()) {
		return resolve.NewTUIChannel(tea.WithOutput(os.Stderr))
	}
	return resolve.NewLineChannel(os.Stdin, os.Stderr)
}
