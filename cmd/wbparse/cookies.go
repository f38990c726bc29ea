package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbparse/backend/internal/infrastructure/session"
)

// NewCookiesCmd creates the cookies command group.
func NewCookiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Manage the session cookie file",
	}
	cmd.AddCommand(newCookiesNormalizeCmd())
	return cmd
}

func newCookiesNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <raw.json> <out.json>",
		Short: "Keep only site cookies from a browser export",
		Long: `Normalize reads a cookie export (an array of cookie objects, or a single
object), drops entries for other domains and entries without a name or value,
and writes the remaining cookies in the format the pipeline loads.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, _ := cmd.Flags().GetString("domain")

			n, err := session.NormalizeCookieFile(args[0], args[1], domain)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d cookies to %s\n", n, args[1])
			return nil
		},
	}

	cmd.Flags().String("domain", session.DefaultDomain, "Cookie domain to keep")

	return cmd
}
