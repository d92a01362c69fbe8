package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/services/accounts"
)

func newAccountsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account", "a"},
		Short:   "List stored accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			list, _ := mgr.InitialState()
			if e.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			return writeAccountsTable(cmd.OutOrStdout(), list, mgr.Config().DisplayPrefs())
		},
	}

	cmd.AddCommand(newAccountsShowCmd(e), newAccountsRemoveCmd(e),
		newAccountsCleanupCmd(e), newAccountsResetCmd(e))
	return cmd
}

// accountDetail is the JSON shape of `accounts show`. Secret values are
// never printed, only whether they are stored.
type accountDetail struct {
	models.AccountRecord
	HasCSRFToken bool `json:"hasCsrfToken"`
	HasAuthToken bool `json:"hasAuthToken"`
}

func newAccountsShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one account with its models and stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			id := models.Identity(args[0])
			rec, ok := mgr.Accounts().Get(id)
			if !ok {
				return fmt.Errorf("no account with id %q", id)
			}
			_, hasCSRF := mgr.Accounts().GetSecret(id, models.SecretCSRFToken)
			_, hasAuth := mgr.Accounts().GetSecret(id, models.SecretAuthToken)
			detail := accountDetail{AccountRecord: rec, HasCSRFToken: hasCSRF, HasAuthToken: hasAuth}

			if e.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), detail)
			}
			return writeAccountDetail(cmd.OutOrStdout(), detail, mgr.Config().DisplayPrefs())
		},
	}
}

func newAccountsResetCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget every stored account, secret and sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			n := mgr.Accounts().Count()
			if err := mgr.ResetAccounts(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reset %d account(s)\n", n)
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func newAccountsRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an account with its secrets and history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			id := models.Identity(args[0])
			if err := mgr.RemoveAccount(id); err != nil {
				if errors.Is(err, accounts.ErrAccountNotFound) {
					return fmt.Errorf("no account with id %q", id)
				}
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			return err
		},
	}
}

func newAccountsCleanupCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stored accounts that no longer validate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			n, err := mgr.CleanupInvalidAccounts()
			if e.flags.JSON {
				if jsonErr := writeJSON(cmd.OutOrStdout(), map[string]int{"removed": n}); jsonErr != nil {
					return jsonErr
				}
				return err
			}
			if _, printErr := fmt.Fprintf(cmd.OutOrStdout(), "Removed %d invalid account(s)\n", n); printErr != nil {
				return printErr
			}
			return err
		},
	}
}
