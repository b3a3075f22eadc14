package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/securebank/securebank/internal/accounts"
	"github.com/securebank/securebank/internal/config"
	"github.com/securebank/securebank/internal/store"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	var (
		name   string
		demo   bool
		driver string
		dsn    string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a securebank data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.home
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(name)
			switch driver {
			case store.DriverSQLite:
				cfg.Storage.Driver = driver
			case store.DriverMemory:
				return errors.New("memory storage does not outlive a command; use sqlite or postgres here and `serve --memory` for a throwaway store")
			case store.DriverPostgres:
				if dsn == "" {
					return errors.New("--dsn is required with --driver postgres")
				}
				cfg.Storage.Driver = driver
				cfg.Storage.DSN = dsn
			default:
				return fmt.Errorf("unknown storage driver %q", driver)
			}

			if err := runInit(absDir, cfg); err != nil {
				return err
			}
			pterm.Success.WithWriter(cmd.OutOrStdout()).Printf("Initialized %s at %s (%s storage)\n", name, absDir, cfg.Storage.Driver)

			if demo {
				n, err := seedDemo(cmd.Context(), cmd, &rootOptions{home: absDir})
				if err != nil {
					return err
				}
				pterm.Info.WithWriter(cmd.OutOrStdout()).Printf("Seeded %d demo accounts\n", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "SecureBank", "bank name")
	cmd.Flags().BoolVar(&demo, "demo", false, "seed the demo accounts")
	cmd.Flags().StringVar(&driver, "driver", store.DriverSQLite, "storage driver (sqlite, postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres connection string")

	return cmd
}

func runInit(dir string, cfg *config.Config) error {
	for _, d := range []string{"", "import"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", filepath.Join(dir, d), err)
		}
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Open once so SQL backends create and migrate their schema.
	st, err := store.Open(cfg.Storage.Driver, storageDSN(dir, cfg.Storage))
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	return st.Close()
}

func seedDemo(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (int, error) {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = a.Close()
	}()
	return a.accounts.Seed(ctx, accounts.DemoAccounts(a.cfg.Bank.DefaultUserID), accounts.DemoHistory())
}
