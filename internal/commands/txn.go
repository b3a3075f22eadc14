package commands

import (
	"github.com/spf13/cobra"

	"github.com/securebank/securebank/internal/ledger"
	"github.com/securebank/securebank/internal/model"
)

func newTxnCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "txn",
		Aliases: []string{"transaction"},
		Short:   "Post transactions and view history",
	}
	cmd.AddCommand(
		newDepositCommand(opts),
		newWithdrawCommand(opts),
		newTransferCommand(opts),
		newPayCommand(opts),
		newHistoryCommand(opts),
	)
	return cmd
}

// postAndReport renders a posted transaction with the account's new balance.
func postAndReport(cmd *cobra.Command, a *app, txn model.Transaction, err error) error {
	if err != nil {
		return err
	}
	acct, err := a.accounts.Get(cmd.Context(), txn.AccountID)
	if err != nil {
		return err
	}
	renderPosted(cmd.OutOrStdout(), txn, acct.Balance)
	return nil
}

func newDepositCommand(opts *rootOptions) *cobra.Command {
	var description, merchant string

	cmd := &cobra.Command{
		Use:   "deposit <account-id> <amount>",
		Short: "Deposit funds into an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				txn, err := a.ledger.Deposit(cmd.Context(), ledger.DepositParams{
					AccountID:    args[0],
					Amount:       amount,
					Description:  description,
					MerchantName: merchant,
				})
				return postAndReport(cmd, a, txn, err)
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "Deposit", "description")
	cmd.Flags().StringVar(&merchant, "merchant", "", "payer name")
	return cmd
}

func newWithdrawCommand(opts *rootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "withdraw <account-id> <amount>",
		Short: "Withdraw funds from an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				txn, err := a.ledger.Withdraw(cmd.Context(), ledger.WithdrawParams{
					AccountID:   args[0],
					Amount:      amount,
					Description: description,
				})
				return postAndReport(cmd, a, txn, err)
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "Withdrawal", "description")
	return cmd
}

func newTransferCommand(opts *rootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "transfer <from-account-id> <to-account-id> <amount>",
		Short: "Move funds between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				txn, err := a.ledger.Transfer(cmd.Context(), ledger.TransferParams{
					SourceAccountID:      args[0],
					DestinationAccountID: args[1],
					Amount:               amount,
					Description:          description,
				})
				return postAndReport(cmd, a, txn, err)
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "Transfer", "description")
	return cmd
}

func newPayCommand(opts *rootOptions) *cobra.Command {
	var description, merchant, category string

	cmd := &cobra.Command{
		Use:   "pay <account-id> <amount>",
		Short: "Pay a merchant from an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			if description == "" {
				description = "Payment to " + merchant
			}
			return withApp(cmd, opts, func(a *app) error {
				txn, err := a.ledger.Payment(cmd.Context(), ledger.PaymentParams{
					AccountID:    args[0],
					Amount:       amount,
					Description:  description,
					MerchantName: merchant,
					Category:     category,
				})
				return postAndReport(cmd, a, txn, err)
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "description (default \"Payment to <merchant>\")")
	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant name")
	_ = cmd.MarkFlagRequired("merchant")
	cmd.Flags().StringVar(&category, "category", model.CategoryPayment, "spending category")
	return cmd
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var (
		page, size int
		all, asCSV bool
	)

	cmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "Show an account's transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				var p *ledger.Page
				if !all {
					if size == 0 {
						size = a.cfg.Ledger.DefaultPageSize
					}
					p = &ledger.Page{Number: page, Size: size}
				}
				txns, err := a.ledger.ListByAccount(cmd.Context(), args[0], p)
				if err != nil {
					return err
				}
				if asCSV {
					return ledger.WriteStatement(cmd.OutOrStdout(), txns)
				}
				return renderTransactions(cmd.OutOrStdout(), "History "+args[0], txns)
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "page number, starting at 0")
	cmd.Flags().IntVar(&size, "size", 0, "page size (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "show the full history")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	return cmd
}
