package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/securebank/securebank/internal/accounts"
	"github.com/securebank/securebank/internal/model"
)

func newAccountCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(
		newAccountListCommand(opts),
		newAccountShowCommand(opts),
		newAccountCreateCommand(opts),
		newAccountSetActiveCommand(opts, "activate", true),
		newAccountSetActiveCommand(opts, "deactivate", false),
		newAccountExportCommand(opts),
		newAccountLoadCommand(opts),
	)
	return cmd
}

func newAccountListCommand(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				accts, err := a.accounts.List(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return renderAccounts(cmd.OutOrStdout(), "Accounts", accts)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user ID (default from config)")
	return cmd
}

func newAccountShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <account-id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				acct, err := a.accounts.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return renderAccounts(cmd.OutOrStdout(), "Account "+acct.AccountNumber, []model.Account{acct})
			})
		},
	}
}

func newAccountCreateCommand(opts *rootOptions) *cobra.Command {
	var (
		userID  string
		acctTyp string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account with a zero balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				acct, err := a.accounts.Create(cmd.Context(), accounts.CreateParams{
					UserID: userID,
					Type:   model.AccountType(acctTyp),
				})
				if err != nil {
					return err
				}
				pterm.Success.WithWriter(cmd.OutOrStdout()).Printf("Created %s account %s (number %s)\n", acct.Type, acct.ID, acct.AccountNumber)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&acctTyp, "type", "", "account type (CHECKING, SAVINGS, CREDIT)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&userID, "user", "", "owner user ID (default from config)")
	return cmd
}

func newAccountSetActiveCommand(opts *rootOptions, verb string, active bool) *cobra.Command {
	short := "Mark an account active"
	if !active {
		short = "Mark an account inactive"
	}
	return &cobra.Command{
		Use:   verb + " <account-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				set := a.accounts.Activate
				if !active {
					set = a.accounts.Deactivate
				}
				acct, err := set(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				state := "inactive"
				if acct.Active {
					state = "active"
				}
				pterm.Success.WithWriter(cmd.OutOrStdout()).Printf("Account %s is now %s\n", acct.ID, state)
				return nil
			})
		},
	}
}

func newAccountExportCommand(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's accounts as CSV to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				return a.accounts.Export(cmd.Context(), cmd.OutOrStdout(), userID)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user ID (default from config)")
	return cmd
}

func newAccountLoadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <accounts.csv>",
		Short: "Load accounts from a CSV written by export",
		Long: `Load accounts from a CSV written by export.

Accounts whose ID already exists are skipped. Loaded accounts keep their
balance but carry no history, so ledger verify needs --opening for them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening accounts file: %w", err)
			}
			defer f.Close()

			return withApp(cmd, opts, func(a *app) error {
				n, err := a.accounts.Load(cmd.Context(), f)
				if err != nil {
					return err
				}
				pterm.Success.WithWriter(cmd.OutOrStdout()).Printf("Loaded %d accounts\n", n)
				return nil
			})
		},
	}
}
