package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/casemap"
)

// NewAccountsCommand creates the accounts command group.
func NewAccountsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and remove snap accounts",
	}
	cmd.AddCommand(newAccountsListCommand(opts))
	cmd.AddCommand(newAccountsRemoveCommand(opts))
	return cmd
}

func newAccountsListCommand(opts *RootOptions) *cobra.Command {
	var snapID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts held by the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			state := s.keyring.Serialize()
			owner := func(id string) string { return state.Accounts[casemap.Fold(id)].SnapID }
			accounts := s.keyring.ListAccounts(cmd.Context())
			if snapID != "" {
				filtered := accounts[:0]
				for _, a := range accounts {
					if owner(a.ID) == snapID {
						filtered = append(filtered, a)
					}
				}
				accounts = filtered
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), accounts)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ADDRESS\tTYPE\tSNAP\tID")
			for _, a := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Address, a.Type, owner(a.ID), a.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&snapID, "snap", "", "only list accounts owned by this snap")
	return cmd
}

func newAccountsRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <address>",
		Short: "Remove an account from the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.keyring.RemoveAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := s.host.SaveState(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}
