package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSnapsCommand creates the snaps command group.
func NewSnapsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snaps",
		Short: "Maintain snap ownership",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <snap-id>",
		Short: "Drop every account owned by an uninstalled snap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			before := len(s.keyring.AccountsBySnapID(args[0]))
			if err := s.host.UninstallSnap(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d account(s) of %s\n", before, args[0])
			return nil
		},
	})
	return cmd
}
