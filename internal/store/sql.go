package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/model"
)

//go:embed migrations
var migrationsFS embed.FS

// SQLStore persists to SQLite or Postgres. Balances and amounts are stored
// as integer cents.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// OpenSQL opens the database, applies migrations, and returns a store.
func OpenSQL(dialect, dsn string) (*SQLStore, error) {
	driverName, connStr, err := connString(dialect, dsn)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(dialect, driverName, connStr); err != nil {
		return nil, fmt.Errorf("migrating %s database: %w", dialect, err)
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dialect, err)
	}
	if dialect == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", dialect, err)
	}

	return &SQLStore{db: db, dialect: dialect}, nil
}

func connString(dialect, dsn string) (driverName, connStr string, err error) {
	switch dialect {
	case DriverSQLite:
		if dsn == "" {
			return "", "", errors.New("sqlite storage requires a database path")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return "", "", fmt.Errorf("creating database directory: %w", err)
		}
		return "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", dsn), nil
	case DriverPostgres:
		if dsn == "" {
			return "", "", errors.New("postgres storage requires a DSN")
		}
		return "postgres", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported SQL dialect %q", dialect)
	}
}

// runMigrations uses its own connection so closing the migrator does not
// close the store's pool.
func runMigrations(dialect, driverName, connStr string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return err
	}

	var driver database.Driver
	switch dialect {
	case DriverSQLite:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case DriverPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("setting up migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("creating iofs source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("setting up migrate instance: %w", err)
	}
	defer func() {
		_, _ = m.Close()
		_ = db.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migration up: %w", err)
	}
	return nil
}

const accountColumns = "id, account_number, account_type, balance_cents, active, created_at, user_id"

// ListAccounts returns the user's accounts in creation order.
func (s *SQLStore) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = ?
		ORDER BY created_at, seq
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []model.Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

// GetAccount returns the account with id.
func (s *SQLStore) GetAccount(ctx context.Context, id string) (model.Account, error) {
	return s.getAccount(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) getAccount(ctx context.Context, q queryer, id string) (model.Account, error) {
	row := q.QueryRowContext(ctx, s.rebind(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`), id)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, notFound(id)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("querying account %s: %w", id, err)
	}
	return acct, nil
}

// InsertAccount adds a new account.
func (s *SQLStore) InsertAccount(ctx context.Context, acct model.Account) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), acct.ID, acct.AccountNumber, string(acct.Type), toCents(acct.Balance), acct.Active, acct.CreatedAt.UnixNano(), acct.UserID)
	if err != nil {
		return fmt.Errorf("inserting account %s: %w", acct.ID, err)
	}
	return nil
}

// SetActive sets the active flag.
func (s *SQLStore) SetActive(ctx context.Context, id string, active bool) (model.Account, error) {
	var out model.Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`UPDATE accounts SET active = ? WHERE id = ?`), active, id)
		if err := affectedOne(res, err, id); err != nil {
			return err
		}
		out, err = s.getAccount(ctx, tx, id)
		return err
	})
	return out, err
}

// AdjustBalance adds delta to the balance with no floor check.
func (s *SQLStore) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (model.Account, error) {
	var out model.Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`), toCents(delta), id)
		if err := affectedOne(res, err, id); err != nil {
			return err
		}
		out, err = s.getAccount(ctx, tx, id)
		return err
	})
	return out, err
}

// Post applies a posting in one database transaction. Debits are guarded in
// the UPDATE itself so the check and the write cannot interleave with
// another writer.
func (s *SQLStore) Post(ctx context.Context, p Posting) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, adj := range p.Adjustments {
			var exists bool
			err := tx.QueryRowContext(ctx, s.rebind(`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)`), adj.AccountID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("checking account %s: %w", adj.AccountID, err)
			}
			if !exists {
				return notFound(adj.AccountID)
			}
		}

		for _, adj := range lockOrder(p.Adjustments) {
			cents := toCents(adj.Delta)
			var (
				res sql.Result
				err error
			)
			if cents < 0 {
				res, err = tx.ExecContext(ctx, s.rebind(`
					UPDATE accounts SET balance_cents = balance_cents + ?
					WHERE id = ? AND balance_cents + ? >= 0
				`), cents, adj.AccountID, cents)
			} else {
				res, err = tx.ExecContext(ctx, s.rebind(`
					UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?
				`), cents, adj.AccountID)
			}
			if err != nil {
				return fmt.Errorf("adjusting account %s: %w", adj.AccountID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("getting rows affected: %w", err)
			}
			if n == 0 {
				return insufficient(adj.AccountID)
			}
		}

		for _, txn := range p.Transactions {
			_, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO transactions (`+transactionColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`),
				txn.ID, txn.Reference, string(txn.Type), toCents(txn.Amount),
				txn.Description, txn.Category, txn.MerchantName, txn.Timestamp.UnixNano(),
				string(txn.Status), txn.AccountID, txn.DestinationAccountID, txn.SourceAccountID,
			)
			if err != nil {
				return fmt.Errorf("inserting transaction %s: %w", txn.Reference, err)
			}
		}
		return nil
	})
}

const transactionColumns = "id, reference, type, amount_cents, description, category, merchant_name, timestamp, status, account_id, destination_account_id, source_account_id"

// TransactionsByAccount returns the account's records newest first.
func (s *SQLStore) TransactionsByAccount(ctx context.Context, accountID string, offset, limit int) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = ?
		ORDER BY timestamp DESC, seq DESC`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	} else if offset > 0 {
		// SQLite requires LIMIT before OFFSET; -1 means unbounded there, Postgres accepts ALL.
		if s.dialect == DriverPostgres {
			query += ` LIMIT ALL OFFSET ?`
		} else {
			query += ` LIMIT -1 OFFSET ?`
		}
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []model.Transaction{}
	for rows.Next() {
		var (
			txn           model.Transaction
			typ, status   string
			amountCents   int64
			timestampNano int64
		)
		err := rows.Scan(
			&txn.ID, &txn.Reference, &typ, &amountCents,
			&txn.Description, &txn.Category, &txn.MerchantName, &timestampNano,
			&status, &txn.AccountID, &txn.DestinationAccountID, &txn.SourceAccountID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		txn.Type = model.TransactionType(typ)
		txn.Status = model.TransactionStatus(status)
		txn.Amount = fromCents(amountCents)
		txn.Timestamp = time.Unix(0, timestampNano).UTC()
		out = append(out, txn)
	}
	return out, rows.Err()
}

// Close closes the database pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// rebind rewrites ? placeholders as $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (model.Account, error) {
	var (
		acct        model.Account
		typ         string
		cents       int64
		createdNano int64
	)
	if err := row.Scan(&acct.ID, &acct.AccountNumber, &typ, &cents, &acct.Active, &createdNano, &acct.UserID); err != nil {
		return model.Account{}, err
	}
	acct.Type = model.AccountType(typ)
	acct.Balance = fromCents(cents)
	acct.CreatedAt = time.Unix(0, createdNano).UTC()
	return acct, nil
}

// lockOrder sorts adjustments by account ID so concurrent postings touching
// the same rows lock them in the same order.
func lockOrder(adjs []Adjustment) []Adjustment {
	out := slices.Clone(adjs)
	slices.SortStableFunc(out, func(a, b Adjustment) int {
		return strings.Compare(a.AccountID, b.AccountID)
	})
	return out
}

func affectedOne(res sql.Result, err error, id string) error {
	if err != nil {
		return fmt.Errorf("updating account %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
