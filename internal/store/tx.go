package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/gridyield/internal/ir"
)

// Tx is one open transaction. All engine reads and writes for an operation
// go through the same Tx so they commit or roll back together.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// ---- modules ----

const moduleColumns = `id, owner, item, pos_x, pos_y, last_harvest, clicks_since_harvest,
	total_clicks, state, trade_item, trade_qty, setup_paid`

// Module loads a module by id. Returns ErrNotFound when absent.
func (t *Tx) Module(id string) (ir.Module, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT `+moduleColumns+` FROM modules WHERE id = ?`, id)
	m, err := scanModule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Module{}, fmt.Errorf("module %s: %w", id, ErrNotFound)
	}
	return m, err
}

// ModulesByOwner lists an owner's modules ordered by id.
func (t *Tx) ModulesByOwner(owner string) ([]ir.Module, error) {
	return queryModules(t.ctx, t.tx, `SELECT `+moduleColumns+` FROM modules WHERE owner = ? ORDER BY id COLLATE BINARY ASC`, owner)
}

// InsertModule writes a new module row. A taken grid cell returns ErrCellOccupied.
func (t *Tx) InsertModule(m ir.Module) error {
	args, err := moduleArgs(m)
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO modules (`+moduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert module %s: %w", m.ID, ErrCellOccupied)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("insert module %s: owner %s: %w", m.ID, m.Owner, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	return nil
}

// UpdateModule overwrites the mutable columns of an existing module.
func (t *Tx) UpdateModule(m ir.Module) error {
	paid, err := marshalItems(m.SetupPaid)
	if err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	tradeItem, tradeQty := tradeColumns(m.Trade)
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE modules SET
			last_harvest = ?, clicks_since_harvest = ?, total_clicks = ?, state = ?,
			trade_item = ?, trade_qty = ?, setup_paid = ?
		WHERE id = ?
	`,
		m.LastHarvest.UnixMicro(),
		m.ClicksSinceHarvest,
		m.TotalClicks,
		m.State.String(),
		tradeItem,
		tradeQty,
		paid,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return expectOne(res, "update module "+m.ID)
}

// DeleteModule removes a module row.
func (t *Tx) DeleteModule(id string) error {
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM modules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return expectOne(res, "delete module "+id)
}

// ---- inventory ----

// AddItem credits qty units of item to owner. qty must be positive.
func (t *Tx) AddItem(owner, item string, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("add item %s: quantity must be positive, got %d", item, qty)
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO inventory (owner, item, qty) VALUES (?, ?, ?)
		ON CONFLICT(owner, item) DO UPDATE SET qty = qty + excluded.qty
	`, owner, item, qty)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("add item %s: owner %s: %w", item, owner, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("add item %s: %w", item, err)
	}
	return nil
}

// RemoveItem debits qty units of item from owner. Returns
// ErrInsufficientQuantity, leaving the balance untouched, when owner holds
// fewer than qty.
func (t *Tx) RemoveItem(owner, item string, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("remove item %s: quantity must be positive, got %d", item, qty)
	}
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE inventory SET qty = qty - ?
		WHERE owner = ? AND item = ? AND qty >= ?
	`, qty, owner, item, qty)
	if err != nil {
		return fmt.Errorf("remove item %s: %w", item, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove item %s: %w", item, err)
	}
	if n == 0 {
		return fmt.Errorf("remove %d %s from %s: %w", qty, item, owner, ErrInsufficientQuantity)
	}
	if _, err := t.tx.ExecContext(t.ctx, `
		DELETE FROM inventory WHERE owner = ? AND item = ? AND qty = 0
	`, owner, item); err != nil {
		return fmt.Errorf("remove item %s: %w", item, err)
	}
	return nil
}

// Quantity returns how many units of item owner holds.
func (t *Tx) Quantity(owner, item string) (int64, error) {
	var qty int64
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT qty FROM inventory WHERE owner = ? AND item = ?
	`, owner, item).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quantity %s: %w", item, err)
	}
	return qty, nil
}

// Inventory lists owner's non-zero balances ordered by item.
func (t *Tx) Inventory(owner string) ([]ir.ItemQty, error) {
	return queryInventory(t.ctx, t.tx, owner)
}

// ---- profiles ----

// Profile loads a user profile. Returns ErrNotFound when absent.
func (t *Tx) Profile(userID string) (ir.Profile, error) {
	var p ir.Profile
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT user_id, available_votes, is_networker FROM profiles WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.AvailableVotes, &p.IsNetworker)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Profile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return ir.Profile{}, fmt.Errorf("profile %s: %w", userID, err)
	}
	return p, nil
}

// SaveProfile inserts or replaces a profile.
func (t *Tx) SaveProfile(p ir.Profile) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO profiles (user_id, available_votes, is_networker) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			available_votes = excluded.available_votes,
			is_networker = excluded.is_networker
	`, p.UserID, p.AvailableVotes, p.IsNetworker)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	return nil
}

// RefreshVotes sets the allowance of every non-networker profile to votes and
// returns how many profiles were updated.
func (t *Tx) RefreshVotes(votes int64) (int64, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE profiles SET available_votes = ? WHERE is_networker = 0
	`, votes)
	if err != nil {
		return 0, fmt.Errorf("refresh votes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("refresh votes: %w", err)
	}
	return n, nil
}

// ---- friendships ----

// SaveFriendship inserts or updates a directed friendship row.
func (t *Tx) SaveFriendship(f ir.Friendship) error {
	if !ir.ValidFriendshipStatuses[f.Status] {
		return fmt.Errorf("save friendship: invalid status %q", f.Status)
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO friendships (from_user, to_user, status) VALUES (?, ?, ?)
		ON CONFLICT(from_user, to_user) DO UPDATE SET status = excluded.status
	`, f.From, f.To, string(f.Status))
	if isForeignKeyViolation(err) {
		return fmt.Errorf("save friendship %s->%s: %w", f.From, f.To, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("save friendship: %w", err)
	}
	return nil
}

// Friends returns the distinct users with an accepted friendship to or from
// userID, sorted. Networker accounts are left out when excludeNetworkers is set.
func (t *Tx) Friends(userID string, excludeNetworkers bool) ([]string, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT DISTINCT f.friend
		FROM (
			SELECT to_user AS friend FROM friendships WHERE from_user = ? AND status = 'friend'
			UNION
			SELECT from_user AS friend FROM friendships WHERE to_user = ? AND status = 'friend'
		) f
		JOIN profiles p ON p.user_id = f.friend
		WHERE (? = 0 OR p.is_networker = 0)
		ORDER BY f.friend COLLATE BINARY ASC
	`, userID, userID, excludeNetworkers)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	friends := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friends: %w", err)
	}
	return friends, nil
}

// ---- interactions ----

// WriteInteraction appends an audit row. Duplicate ids are silently ignored.
func (t *Tx) WriteInteraction(in ir.Interaction) error {
	detail, err := marshalDetail(in.Detail)
	if err != nil {
		return fmt.Errorf("write interaction: %w", err)
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO interactions (id, token, kind, module_id, actor, detail, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		in.ID,
		in.Token,
		string(in.Kind),
		in.ModuleID,
		in.Actor,
		detail,
		in.At.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("write interaction: %w", err)
	}
	return nil
}

// ---- helpers ----

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanModule(row rowScanner) (ir.Module, error) {
	var (
		m           ir.Module
		posX, posY  sql.NullInt64
		lastHarvest int64
		state       string
		tradeItem   sql.NullString
		tradeQty    sql.NullInt64
		paid        string
	)
	err := row.Scan(&m.ID, &m.Owner, &m.Item, &posX, &posY, &lastHarvest,
		&m.ClicksSinceHarvest, &m.TotalClicks, &state, &tradeItem, &tradeQty, &paid)
	if err != nil {
		return ir.Module{}, err
	}

	if posX.Valid && posY.Valid {
		m.Pos = &ir.GridPos{X: int(posX.Int64), Y: int(posY.Int64)}
	}
	m.LastHarvest = time.UnixMicro(lastHarvest).UTC()
	if m.State, err = ir.ParseSetupState(state); err != nil {
		return ir.Module{}, fmt.Errorf("module %s: %w", m.ID, err)
	}
	if tradeItem.Valid {
		m.Trade = &ir.ItemQty{Item: tradeItem.String, Qty: tradeQty.Int64}
	}
	if m.SetupPaid, err = unmarshalItems(paid); err != nil {
		return ir.Module{}, fmt.Errorf("module %s: %w", m.ID, err)
	}
	return m, nil
}

func queryModules(ctx context.Context, q queryer, query string, args ...any) ([]ir.Module, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	modules := []ir.Module{}
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modules: %w", err)
	}
	return modules, nil
}

func queryInventory(ctx context.Context, q queryer, owner string) ([]ir.ItemQty, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT item, qty FROM inventory
		WHERE owner = ? AND qty > 0
		ORDER BY item COLLATE BINARY ASC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	items := []ir.ItemQty{}
	for rows.Next() {
		var iq ir.ItemQty
		if err := rows.Scan(&iq.Item, &iq.Qty); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, iq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return items, nil
}

func moduleArgs(m ir.Module) ([]any, error) {
	paid, err := marshalItems(m.SetupPaid)
	if err != nil {
		return nil, err
	}
	var posX, posY sql.NullInt64
	if m.Pos != nil {
		posX = sql.NullInt64{Int64: int64(m.Pos.X), Valid: true}
		posY = sql.NullInt64{Int64: int64(m.Pos.Y), Valid: true}
	}
	tradeItem, tradeQty := tradeColumns(m.Trade)
	return []any{
		m.ID,
		m.Owner,
		m.Item,
		posX,
		posY,
		m.LastHarvest.UnixMicro(),
		m.ClicksSinceHarvest,
		m.TotalClicks,
		m.State.String(),
		tradeItem,
		tradeQty,
		paid,
	}, nil
}

func tradeColumns(trade *ir.ItemQty) (sql.NullString, sql.NullInt64) {
	if trade == nil {
		return sql.NullString{}, sql.NullInt64{}
	}
	return sql.NullString{String: trade.Item, Valid: true}, sql.NullInt64{Int64: trade.Qty, Valid: true}
}

func expectOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
