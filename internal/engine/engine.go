package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/ir"
	"github.com/roach88/gridyield/internal/store"
)

// Tx is the transactional view an operation works through: the inventory
// ledger, module rows, profiles, the friend graph and the interaction log.
// Implemented by *store.Tx.
type Tx interface {
	Module(id string) (ir.Module, error)
	InsertModule(m ir.Module) error
	UpdateModule(m ir.Module) error
	DeleteModule(id string) error

	AddItem(owner, item string, qty int64) error
	RemoveItem(owner, item string, qty int64) error

	Profile(userID string) (ir.Profile, error)
	SaveProfile(p ir.Profile) error
	RefreshVotes(votes int64) (int64, error)

	SaveFriendship(f ir.Friendship) error
	Friends(userID string, excludeNetworkers bool) ([]string, error)

	WriteInteraction(in ir.Interaction) error
}

var _ Tx = (*store.Tx)(nil)

// Messenger delivers templated messages. Called after the operation that
// produced them has committed. Implemented by *store.Outbox.
type Messenger interface {
	Send(ctx context.Context, m ir.Message) error
}

// Journal receives every committed interaction. Implemented by *audit.Journal.
type Journal interface {
	Record(in ir.Interaction) error
}

// Defaults for engine options.
const (
	DefaultDailyVotes = 10
	DefaultGridWidth  = 3
	DefaultGridHeight = 4
)

// Engine runs module operations against the store.
//
// Thread-safety model:
//   - every exported method is safe from any goroutine
//   - operations on one module are serialised by a per-module lock held for
//     the whole transaction
//   - the store's single connection serialises transactions, so balances
//     shared between modules stay consistent
type Engine struct {
	store   *store.Store
	catalog *catalog.Catalog
	locks   *moduleLocks

	logger    *slog.Logger
	clock     Clock
	rand      Rand
	moduleIDs TokenGenerator
	tokens    TokenGenerator
	messenger Messenger
	journal   Journal

	dailyVotes int64
	gridWidth  int
	gridHeight int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the wall clock. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand sets the random source. Default: SystemRand().
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithModuleIDs sets the generator for new module ids. Default: UUIDv7Generator.
func WithModuleIDs(g TokenGenerator) Option {
	return func(e *Engine) { e.moduleIDs = g }
}

// WithTokens sets the generator for interaction tokens. Default: UUIDv7Generator.
func WithTokens(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// WithMessenger sets the message sink. Default: a store.Outbox on the engine's store.
func WithMessenger(m Messenger) Option {
	return func(e *Engine) { e.messenger = m }
}

// WithJournal sets an audit journal. Default: none.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithDailyVotes sets the allowance new users start with and refresh restores.
func WithDailyVotes(n int64) Option {
	return func(e *Engine) { e.dailyVotes = n }
}

// WithGrid sets the page grid size. Positions satisfy 0 <= x < width, 0 <= y < height.
func WithGrid(width, height int) Option {
	return func(e *Engine) {
		e.gridWidth = width
		e.gridHeight = height
	}
}

// New creates an Engine over s using the compiled catalog cat.
func New(s *store.Store, cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		store:      s,
		catalog:    cat,
		locks:      newModuleLocks(),
		logger:     slog.Default(),
		clock:      SystemClock{},
		moduleIDs:  UUIDv7Generator{},
		tokens:     UUIDv7Generator{},
		dailyVotes: DefaultDailyVotes,
		gridWidth:  DefaultGridWidth,
		gridHeight: DefaultGridHeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = SystemRand()
	}
	if e.messenger == nil {
		e.messenger = store.NewOutbox(s)
	}
	return e
}

// Catalog returns the catalog the engine was built with.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// record collects what an operation did so it can be logged and audited
// once the transaction commits. A record with an empty kind is a no-op.
type record struct {
	kind     ir.InteractionKind
	moduleID string
	actor    string
	detail   ir.Object
	messages []ir.Message

	interaction ir.Interaction
}

// now returns the clock reading truncated to the store's precision, so that
// values written and read back compare equal.
func (e *Engine) now() time.Time {
	return e.clock.Now().UTC().Truncate(time.Microsecond)
}

// exec runs fn under the module lock inside one transaction. On commit the
// interaction is journaled and queued messages are sent.
func (e *Engine) exec(ctx context.Context, moduleID string, fn func(tx Tx, now time.Time, rec *record) error) (*record, error) {
	unlock := e.locks.lock(moduleID)
	defer unlock()

	now := e.now()
	rec := &record{moduleID: moduleID}
	err := e.store.InTx(ctx, func(stx *store.Tx) error {
		if err := fn(stx, now, rec); err != nil {
			return err
		}
		if rec.kind == "" {
			return nil
		}
		token := e.tokens.Generate()
		if rec.detail == nil {
			rec.detail = ir.Object{}
		}
		id, err := ir.InteractionID(token, rec.kind, rec.moduleID, rec.actor, now.UnixMicro(), rec.detail)
		if err != nil {
			return fmt.Errorf("interaction id: %w", err)
		}
		rec.interaction = ir.Interaction{
			ID:       id,
			Token:    token,
			Kind:     rec.kind,
			ModuleID: rec.moduleID,
			Actor:    rec.actor,
			Detail:   rec.detail,
			At:       now,
		}
		return stx.WriteInteraction(rec.interaction)
	})
	if err != nil {
		e.logger.Debug("operation aborted",
			"module", moduleID,
			"code", string(CodeOf(err)),
			"error", err,
		)
		return nil, err
	}

	e.afterCommit(ctx, rec)
	return rec, nil
}

// afterCommit hands off side effects of a committed operation. Failures are
// logged; the operation itself has already succeeded.
func (e *Engine) afterCommit(ctx context.Context, rec *record) {
	if rec.kind == "" {
		return
	}
	e.logger.Debug("operation committed",
		"kind", string(rec.kind),
		"module", rec.moduleID,
		"actor", rec.actor,
		"interaction", rec.interaction.ID,
	)
	for _, m := range rec.messages {
		if err := e.messenger.Send(ctx, m); err != nil {
			e.logger.Warn("message delivery failed",
				"sender", m.Sender,
				"recipient", m.Recipient,
				"template", m.Template,
				"error", err,
			)
		}
	}
	if e.journal != nil {
		if err := e.journal.Record(rec.interaction); err != nil {
			e.logger.Warn("journal write failed", "interaction", rec.interaction.ID, "error", err)
		}
	}
}

// loadModule reads a module and its catalog entry.
func (e *Engine) loadModule(tx Tx, id string) (ir.Module, catalog.ModuleInfo, error) {
	m, err := tx.Module(id)
	if errors.Is(err, store.ErrNotFound) {
		return ir.Module{}, catalog.ModuleInfo{}, newError(CodeModuleNotFound, id, "", "no module with this id")
	}
	if err != nil {
		return ir.Module{}, catalog.ModuleInfo{}, err
	}
	info, ok := e.catalog.Module(m.Item)
	if !ok {
		return ir.Module{}, catalog.ModuleInfo{}, newError(CodeUnknownItem, id, "", "item %q is not in the catalog", m.Item)
	}
	return m, info, nil
}

// loadProfile reads a user profile.
func loadProfile(tx Tx, userID string) (ir.Profile, error) {
	p, err := tx.Profile(userID)
	if errors.Is(err, store.ErrNotFound) {
		return ir.Profile{}, newError(CodeUnknownUser, "", userID, "no profile for this user")
	}
	return p, err
}

// debit removes every item in items from owner.
func debit(tx Tx, moduleID, owner string, items []ir.ItemQty) error {
	for _, it := range items {
		err := tx.RemoveItem(owner, it.Item, it.Qty)
		if errors.Is(err, store.ErrInsufficientQuantity) {
			return newError(CodeInsufficientInventory, moduleID, owner, "needs %d %s", it.Qty, it.Item)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// credit adds every item in items to owner, skipping zero quantities.
func credit(tx Tx, owner string, items []ir.ItemQty) error {
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		if err := tx.AddItem(owner, it.Item, it.Qty); err != nil {
			return err
		}
	}
	return nil
}

// saveModule normalises the state against the catalog entry and writes m.
// An item without setup never carries NeedsSetup or SetUp.
func saveModule(tx Tx, m *ir.Module, info catalog.ModuleInfo) error {
	if !info.Setupable() {
		m.State = ir.NotApplicable
		m.SetupPaid = nil
	}
	return tx.UpdateModule(*m)
}
