package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/toolroute/internal/catalog"
	"github.com/ShayCichocki/toolroute/internal/credentials"
)

var (
	credToken    string
	credUsername string
	credPassword string
	credHeader   string
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage stored provider credentials",
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Store credentials for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := catalog.Credentials{
			Token:    credToken,
			Username: credUsername,
			Password: credPassword,
			Header:   credHeader,
		}
		if creds.IsZero() {
			return errors.New("nothing to store: pass --token or --username/--password")
		}

		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		providerID := args[0]
		if _, err := a.catalog.Get(ctx, providerID); errors.Is(err, catalog.ErrProviderNotFound) {
			printStatus(cmd.ErrOrStderr(), "⚠", fmt.Sprintf("%s is not in the catalog yet", providerID), warnColor)
		}

		if err := a.store.Put(ctx, providerID, creds); err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Stored credentials for %s", providerID), okColor)
		return nil
	},
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove stored credentials for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Delete(context.Background(), args[0]); err != nil {
			if errors.Is(err, credentials.ErrNotFound) {
				return fmt.Errorf("no credentials stored for %s", args[0])
			}
			return err
		}
		printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Deleted credentials for %s", args[0]), okColor)
		return nil
	},
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.store.List(context.Background())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No credentials stored")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tTOKEN\tUSERNAME\tHEADER\tUPDATED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.ProviderID,
				credentials.Redact(r.Credentials.Token),
				r.Credentials.Username,
				r.Credentials.Header,
				r.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	credentialsSetCmd.Flags().StringVar(&credToken, "token", "", "API token or key")
	credentialsSetCmd.Flags().StringVar(&credUsername, "username", "", "Username for basic auth")
	credentialsSetCmd.Flags().StringVar(&credPassword, "password", "", "Password for basic auth")
	credentialsSetCmd.Flags().StringVar(&credHeader, "header", "", "Header carrying the token (overrides the catalog)")

	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsDeleteCmd)
	credentialsCmd.AddCommand(credentialsListCmd)
}
