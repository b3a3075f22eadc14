package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/securebank/securebank/internal/buildinfo"
)

type rootOptions struct {
	home string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "securebank",
		Short:   "Retail banking core: accounts, balances, and a transaction ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.home, "home", ".", "data directory holding securebank.yaml")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newAccountCommand(opts),
		newTxnCommand(opts),
		newLedgerCommand(opts),
		newImportCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}
