package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/securebank/securebank/internal/accounts"
	"github.com/securebank/securebank/internal/api"
	"github.com/securebank/securebank/internal/config"
	"github.com/securebank/securebank/internal/store"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		addr   string
		memory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, func(cfg *config.Config) {
				if addr != "" {
					cfg.Server.Addr = addr
				}
				if memory {
					cfg.Storage.Driver = store.DriverMemory
				}
			})
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if memory {
				n, err := a.accounts.Seed(ctx, accounts.DemoAccounts(a.cfg.Bank.DefaultUserID), accounts.DemoHistory())
				if err != nil {
					return err
				}
				a.logger.Info("seeded in-memory store", a.logger.Args("accounts", n))
			}

			pterm.Info.WithWriter(cmd.OutOrStdout()).Printf("%s listening on %s\n", a.cfg.Bank.Name, a.cfg.Server.Addr)
			srv := api.NewServer(a.accounts, a.ledger, a.logger, a.cfg.Ledger.DefaultPageSize)
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&memory, "memory", false, "use a throwaway in-memory store seeded with demo accounts")
	return cmd
}
