package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var choicesCmd = &cobra.Command{
	Use:   "choices <task>",
	Short: "Show which providers a task would use, without running it",
	Long: `Classify a task and resolve its capability sets without asking for
choices or executing anything.

The output lists the providers selected automatically and the sets that
need a pick. Fill in "user_choices" from it and pass the result to
'toolroute run --choices'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{orchestrator: true})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()

		data, err := a.orch.GetChoiceData(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("encode choice data: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
