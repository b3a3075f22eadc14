package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/securebank/securebank/internal/importer"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <account-id> [file]",
		Short: "Replay a bank statement CSV into an account",
		Long: `Replay a bank statement CSV into an account.

Inflows become deposits. Outflows become payments categorized by the
bank's transaction code, except ATM rows, which are withdrawals. Rows
the ledger rejects are reported and skipped. Without a file, every CSV
in <home>/import is replayed and then moved to <home>/import/processed.
A statement whose name is already in processed/ is left alone.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID := args[0]
			reg := importer.DefaultRegistry()

			return withApp(cmd, opts, func(a *app) error {
				if _, err := a.accounts.Get(cmd.Context(), accountID); err != nil {
					return err
				}
				w := cmd.OutOrStdout()

				if len(args) == 2 {
					report, err := importFile(cmd, a, reg, format, args[1], accountID)
					if err != nil {
						return err
					}
					printReport(w, args[1], report)
					return nil
				}

				inbox := importer.NewInbox(a.home)
				pending, err := inbox.Pending()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					pterm.Info.WithWriter(w).Println("No CSV files in import/")
					return nil
				}
				for _, st := range pending {
					if st.Archived {
						pterm.Warning.WithWriter(w).Printf("%s: already imported, rename it to import again\n", st.Name)
						continue
					}
					report, err := importFile(cmd, a, reg, format, st.Path, accountID)
					if err != nil {
						return fmt.Errorf("%s: %w", st.Name, err)
					}
					printReport(w, st.Name, report)
					if err := inbox.Archive(st.Name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "chase", "statement format")
	return cmd
}

func importFile(cmd *cobra.Command, a *app, reg *importer.Registry, format, path, accountID string) (importer.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return importer.Report{}, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()
	return importer.ImportFile(cmd.Context(), reg, format, f, a.ledger, accountID)
}

func printReport(w io.Writer, name string, report importer.Report) {
	pterm.Success.WithWriter(w).Printf("%s: posted %d, skipped %d\n", name, len(report.Posted), len(report.Skipped))
	for _, s := range report.Skipped {
		pterm.Warning.WithWriter(w).Printf("  row %d %s %s %s: %v\n",
			s.Line, s.Row.Reference, s.Row.Description, s.Row.Amount.StringFixed(2), s.Err)
	}
}
