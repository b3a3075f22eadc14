// Package importer replays bank statement exports into the ledger.
package importer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/securebank/securebank/internal/model"
)

// Parser converts a bank CSV export into classified statement rows.
type Parser interface {
	Parse(r io.Reader) ([]model.BankTransaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Lookup returns the parser for format, matched case-insensitively.
func (r *Registry) Lookup(format string) (Parser, error) {
	if p, ok := r.parsers[strings.ToLower(format)]; ok {
		return p, nil
	}
	known := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		known = append(known, k)
	}
	slices.Sort(known)
	return nil, fmt.Errorf("unknown import format %q (supported: %s)", format, strings.Join(known, ", "))
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	return r
}

const (
	inboxDir   = "import"
	archiveDir = "processed"
)

// Inbox is the import/ directory of a data directory. Statements dropped
// there are replayed once and then archived under import/processed/.
type Inbox struct {
	dir string
}

// NewInbox returns the inbox of the data directory home.
func NewInbox(home string) Inbox {
	return Inbox{dir: filepath.Join(home, inboxDir)}
}

// Statement is a CSV file waiting in the inbox.
type Statement struct {
	Name string
	Path string
	Size int64
	// Archived is set when a statement with the same name was already
	// replayed. Replaying it again would post every row twice.
	Archived bool
}

// Pending returns the CSV files in the inbox in name order. A missing inbox
// has nothing pending.
func (b Inbox) Pending() ([]Statement, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var out []Statement
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		_, err = os.Stat(filepath.Join(b.dir, archiveDir, e.Name()))
		out = append(out, Statement{
			Name:     e.Name(),
			Path:     filepath.Join(b.dir, e.Name()),
			Size:     info.Size(),
			Archived: err == nil,
		})
	}
	return out, nil
}

// Archive moves a replayed statement to import/processed/. It refuses to
// replace a statement archived under the same name.
func (b Inbox) Archive(name string) error {
	dstDir := filepath.Join(b.dir, archiveDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, name)
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("archiving %s: %w", name, fs.ErrExist)
	}
	if err := os.Rename(filepath.Join(b.dir, name), dst); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}
