package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the providers in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		descriptors := a.catalog.List(ctx)
		if len(descriptors) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No providers in %s\n", a.cfg.Catalog.Path)
			return nil
		}

		stored, err := a.store.List(ctx)
		if err != nil {
			return err
		}
		hasCreds := make(map[string]bool, len(stored))
		for _, r := range stored {
			hasCreds[r.ProviderID] = true
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSTATUS\tOPS\tCREDENTIALS")
		for _, d := range descriptors {
			status := color.GreenString("available")
			if !d.Available {
				status = color.RedString("unavailable")
			}
			creds := "-"
			if hasCreds[d.ID] {
				creds = "stored"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				d.ID, d.Name, d.Category, status, a.catalog.OperationCount(ctx, d.ID), creds)
		}
		return w.Flush()
	},
}
