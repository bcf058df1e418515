package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// NewStateCommand creates the state command group.
func NewStateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Export or import the serialized keyring state",
	}
	cmd.AddCommand(newStateExportCommand(opts))
	cmd.AddCommand(newStateImportCommand(opts))
	return cmd
}

func newStateExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the keyring state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			state := s.keyring.Serialize()
			if output == "" {
				return writeJSON(cmd.OutOrStdout(), state)
			}
			raw, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, raw, 0o600); err != nil {
				return WrapExitError(ExitCommandError, "failed to write state", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newStateImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the keyring state with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read state", err)
			}
			var state models.KeyringState
			if err := json.Unmarshal(raw, &state); err != nil {
				return WrapExitError(ExitCommandError, "failed to parse state", err)
			}

			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.keyring.Deserialize(&state); err != nil {
				return WrapExitError(ExitCommandError, "invalid state", err)
			}
			if err := s.host.SaveState(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d account(s)\n", len(state.Accounts))
			return nil
		},
	}
}
