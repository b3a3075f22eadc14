package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/securebank/securebank/internal/accounts"
	"github.com/securebank/securebank/internal/config"
	"github.com/securebank/securebank/internal/events"
	"github.com/securebank/securebank/internal/ledger"
	"github.com/securebank/securebank/internal/logging"
	"github.com/securebank/securebank/internal/store"
)

// app holds the services a command runs against.
type app struct {
	home      string
	cfg       *config.Config
	logger    *pterm.Logger
	store     store.Store
	publisher events.Publisher
	accounts  *accounts.Service
	ledger    *ledger.Service
}

// loadConfig reads <home>/securebank.yaml, falling back to defaults and
// environment overrides when the file does not exist.
func loadConfig(home string) (*config.Config, error) {
	path := filepath.Join(home, config.FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		path = ""
	}
	return config.Load(path)
}

// openApp loads config, applies adjust, and opens the store and services.
func openApp(cmd *cobra.Command, opts *rootOptions, adjust func(*config.Config)) (*app, error) {
	home, err := filepath.Abs(opts.home)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := loadConfig(home)
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Storage.Driver, storageDSN(home, cfg.Storage))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.Events.NATSURL != "" {
		p, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		publisher = p
	}

	logger.Debug("opened store", logger.Args("driver", cfg.Storage.Driver, "home", home))

	return &app{
		home:      home,
		cfg:       cfg,
		logger:    logger,
		store:     st,
		publisher: publisher,
		accounts:  accounts.NewService(st, cfg.Bank.DefaultUserID),
		ledger:    ledger.NewService(st, publisher, logger),
	}, nil
}

func storageDSN(home string, sc config.StorageConfig) string {
	switch sc.Driver {
	case store.DriverSQLite:
		if filepath.IsAbs(sc.Path) {
			return sc.Path
		}
		return filepath.Join(home, sc.Path)
	case store.DriverPostgres:
		return sc.DSN
	default:
		return ""
	}
}

// Close releases the event connection and the store.
func (a *app) Close() error {
	return errors.Join(a.publisher.Close(), a.store.Close())
}

// withApp opens the app, runs fn, and closes it.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(*app) error) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(a)
}
