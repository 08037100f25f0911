package store

import (
	"context"
	"fmt"

	"github.com/roach88/gridyield/internal/ir"
)

// Outbox delivers messages by appending them to the messages table.
// It satisfies engine.Messenger.
type Outbox struct {
	store *Store
}

// NewOutbox returns an Outbox writing to s.
func NewOutbox(s *Store) *Outbox {
	return &Outbox{store: s}
}

// Send appends one message.
func (o *Outbox) Send(ctx context.Context, m ir.Message) error {
	_, err := o.store.db.ExecContext(ctx, `
		INSERT INTO messages (sender, recipient, template, sent_at) VALUES (?, ?, ?, ?)
	`, m.Sender, m.Recipient, m.Template, m.SentAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("send message %s->%s: %w", m.Sender, m.Recipient, err)
	}
	return nil
}
