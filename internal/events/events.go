// Package events publishes posted ledger transactions to subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/securebank/securebank/internal/model"
)

// Publisher announces transactions after they are posted.
type Publisher interface {
	Publish(ctx context.Context, txn model.Transaction) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, model.Transaction) error { return nil }
func (Noop) Close() error { return nil }

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher publishes each transaction as JSON on
// "<prefix>.ledger.<type>".
type NATSPublisher struct {
	conn   Conn
	prefix string
	close  func() error
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("securebank"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	p := NewNATSPublisher(nc, prefix)
	p.close = nc.Drain
	return p, nil
}

// Subject returns the subject a transaction of typ is published on.
func Subject(prefix string, typ model.TransactionType) string {
	return prefix + ".ledger." + strings.ToLower(string(typ))
}

// Publish sends txn. The context is only checked before sending; NATS
// publishes are buffered and do not block.
func (p *NATSPublisher) Publish(ctx context.Context, txn model.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("encoding transaction %s: %w", txn.Reference, err)
	}
	subj := Subject(p.prefix, txn.Type)
	if err := p.conn.Publish(subj, data); err != nil {
		return fmt.Errorf("publishing %s: %w", subj, err)
	}
	return nil
}

// Close drains the connection if the publisher opened it.
func (p *NATSPublisher) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}
