package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/securebank/securebank/internal/ledger"
)

func newLedgerCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger maintenance",
	}
	cmd.AddCommand(
		newLedgerVerifyCommand(opts),
		newLedgerCheckCommand(),
	)
	return cmd
}

func newLedgerVerifyCommand(opts *rootOptions) *cobra.Command {
	var opening string

	cmd := &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Check that an account's history explains its balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			open, err := decimal.NewFromString(opening)
			if err != nil {
				return fmt.Errorf("parsing opening balance %q: %w", opening, err)
			}
			return withApp(cmd, opts, func(a *app) error {
				r, err := a.ledger.Reconcile(cmd.Context(), args[0], open)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				pterm.DefaultSection.WithWriter(w).Println("Ledger " + r.Account.AccountNumber)
				pterm.Info.WithWriter(w).Printf("Opening %s + %d records (%s) = %s, stored %s\n",
					r.Opening.StringFixed(2), r.Records, r.Net.StringFixed(2), r.Expected.StringFixed(2), r.Account.Balance.StringFixed(2))

				if r.OK() {
					pterm.Success.WithWriter(w).Println("Ledger is consistent")
					return nil
				}
				for _, ve := range r.Errors {
					pterm.Warning.WithWriter(w).Println(ve.Error())
				}
				return fmt.Errorf("ledger verification failed: %d issue(s)", len(r.Errors))
			})
		},
	}

	cmd.Flags().StringVar(&opening, "opening", "0", "balance before the first recorded transaction")
	return cmd
}

func newLedgerCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <account-id> <statement.csv>",
		Short: "Validate a statement written by txn history --csv",
		Long: `Validate a statement written by txn history --csv.

Runs the same record checks as verify against an exported file, without
opening the store. Balances are not compared.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("opening statement: %w", err)
			}
			defer f.Close()

			txns, err := ledger.ReadStatement(f)
			if err != nil {
				return err
			}

			net := decimal.Zero
			for _, txn := range txns {
				net = net.Add(txn.Amount)
			}

			w := cmd.OutOrStdout()
			pterm.Info.WithWriter(w).Printf("%d records, net %s\n", len(txns), net.StringFixed(2))

			errs := ledger.ValidateTransactions(txns, args[0])
			if len(errs) == 0 {
				pterm.Success.WithWriter(w).Println("Statement is consistent")
				return nil
			}
			for _, ve := range errs {
				pterm.Warning.WithWriter(w).Println(ve.Error())
			}
			return fmt.Errorf("statement check failed: %d issue(s)", len(errs))
		},
	}
}
