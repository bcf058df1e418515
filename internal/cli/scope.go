package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/caip"
)

// NewScopeCommand creates the scope command.
func NewScopeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scope <namespace> <reference>",
		Short: "Format and validate a CAIP-2 chain id",
		Example: `  keyringctl scope eip155 1
  keyringctl scope bip122 000000000019d6689c085ae165831e93`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := caip.ChainID(args[0], args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid chain id", err)
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"chainId": id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
