package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omni-quota/internal/display"
)

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the one-line quota status",
		Long: `Print the status line for the primary account, suitable for shell prompts
and status bars. One cycle runs before printing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			snap := mgr.Scan(cmd.Context()).Primary
			line := display.StatusLine(snap, mgr.Config().DisplayPrefs(), mgr.SelectedModel())
			if e.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"text":      line,
					"connected": snap.Connected,
					"account":   snap.AccountID,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), line)
			return err
		},
	}
}

func newSelectCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "select <model>",
		Short: "Choose the model shown on the status line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := mgr.SelectModel(args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Status line shows %s\n", display.ShortName(args[0]))
			return err
		},
	}
}
