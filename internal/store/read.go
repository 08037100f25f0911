package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/gridyield/internal/ir"
)

// Module loads a module outside an operation. Returns ErrNotFound when absent.
func (s *Store) Module(ctx context.Context, id string) (ir.Module, error) {
	var m ir.Module
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		m, err = tx.Module(id)
		return err
	})
	return m, err
}

// Modules lists modules ordered by id. An empty owner lists every module.
func (s *Store) Modules(ctx context.Context, owner string) ([]ir.Module, error) {
	if owner == "" {
		return queryModules(ctx, s.db, `SELECT `+moduleColumns+` FROM modules ORDER BY id COLLATE BINARY ASC`)
	}
	return queryModules(ctx, s.db, `SELECT `+moduleColumns+` FROM modules WHERE owner = ? ORDER BY id COLLATE BINARY ASC`, owner)
}

// Inventory lists owner's non-zero balances ordered by item.
func (s *Store) Inventory(ctx context.Context, owner string) ([]ir.ItemQty, error) {
	return queryInventory(ctx, s.db, owner)
}

// Profile loads a user profile. Returns ErrNotFound when absent.
func (s *Store) Profile(ctx context.Context, userID string) (ir.Profile, error) {
	var p ir.Profile
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		p, err = tx.Profile(userID)
		return err
	})
	return p, err
}

// Users lists every profile ordered by user id.
func (s *Store) Users(ctx context.Context) ([]ir.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, available_votes, is_networker FROM profiles
		ORDER BY user_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []ir.Profile{}
	for rows.Next() {
		var p ir.Profile
		if err := rows.Scan(&p.UserID, &p.AvailableVotes, &p.IsNetworker); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

// Messages lists messages delivered to recipient in send order.
// An empty recipient lists every message.
func (s *Store) Messages(ctx context.Context, recipient string) ([]ir.Message, error) {
	query := `SELECT id, sender, recipient, template, sent_at FROM messages`
	var args []any
	if recipient != "" {
		query += ` WHERE recipient = ?`
		args = append(args, recipient)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []ir.Message{}
	for rows.Next() {
		var (
			m      ir.Message
			sentAt int64
		)
		if err := rows.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Template, &sentAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.SentAt = time.UnixMicro(sentAt).UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// InteractionFilter narrows an interaction history query. Zero fields match all.
type InteractionFilter struct {
	ModuleID string
	Actor    string
	Limit    int
}

// Interactions returns audit rows in commit order.
func (s *Store) Interactions(ctx context.Context, f InteractionFilter) ([]ir.Interaction, error) {
	query := `SELECT id, token, kind, module_id, actor, detail, at FROM interactions WHERE 1 = 1`
	var args []any
	if f.ModuleID != "" {
		query += ` AND module_id = ?`
		args = append(args, f.ModuleID)
	}
	if f.Actor != "" {
		query += ` AND actor = ?`
		args = append(args, f.Actor)
	}
	query += ` ORDER BY seq ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	out := []ir.Interaction{}
	for rows.Next() {
		var (
			in     ir.Interaction
			kind   string
			detail string
			at     int64
		)
		if err := rows.Scan(&in.ID, &in.Token, &kind, &in.ModuleID, &in.Actor, &detail, &at); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.Kind = ir.InteractionKind(kind)
		in.At = time.UnixMicro(at).UTC()
		if in.Detail, err = unmarshalDetail(detail); err != nil {
			return nil, fmt.Errorf("interaction %s: %w", in.ID, err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}

const metaCatalogDigest = "catalog_digest"

// RecordCatalogDigest stores digest and returns the value it replaced
// (empty on first use).
func (s *Store) RecordCatalogDigest(ctx context.Context, digest string) (string, error) {
	var previous string
	err := s.InTx(ctx, func(tx *Tx) error {
		err := tx.tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaCatalogDigest).Scan(&previous)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read catalog digest: %w", err)
		}
		_, err = tx.tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, metaCatalogDigest, digest)
		if err != nil {
			return fmt.Errorf("write catalog digest: %w", err)
		}
		return nil
	})
	return previous, err
}
