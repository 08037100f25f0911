package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/ir"
	"github.com/roach88/gridyield/internal/store"
)

// Place puts one unit of item from owner's inventory onto owner's page at pos
// (nil places it off-grid). The new module starts in NeedsSetup when the item
// has a setup requirement and NotApplicable otherwise.
func (e *Engine) Place(ctx context.Context, owner, item string, pos *ir.GridPos) (ir.Module, error) {
	owner = ir.NormalizeUserID(owner)
	info, ok := e.catalog.Module(item)
	if !ok {
		return ir.Module{}, newError(CodeUnknownItem, "", owner, "item %q is not a module", item)
	}
	if pos != nil && !e.onGrid(*pos) {
		return ir.Module{}, newError(CodeOutOfBounds, "", owner,
			"(%d, %d) is outside the %dx%d grid", pos.X, pos.Y, e.gridWidth, e.gridHeight)
	}

	id := e.moduleIDs.Generate()
	var placed ir.Module
	_, err := e.exec(ctx, id, func(tx Tx, now time.Time, rec *record) error {
		if _, err := loadProfile(tx, owner); err != nil {
			return err
		}
		if err := debit(tx, id, owner, []ir.ItemQty{{Item: item, Qty: 1}}); err != nil {
			return err
		}

		placed = ir.Module{
			ID:          id,
			Owner:       owner,
			Item:        item,
			LastHarvest: now,
			State:       ir.InitialSetupState(info.Setupable()),
		}
		if pos != nil {
			p := *pos
			placed.Pos = &p
		}
		err := tx.InsertModule(placed)
		if errors.Is(err, store.ErrCellOccupied) {
			return newError(CodeCellOccupied, id, owner, "(%d, %d) already holds a module", pos.X, pos.Y)
		}
		if err != nil {
			return err
		}

		rec.kind = ir.KindPlace
		rec.actor = owner
		rec.detail = ir.Object{"item": ir.String(item)}
		if pos != nil {
			rec.detail["pos"] = ir.Object{"x": ir.Int(pos.X), "y": ir.Int(pos.Y)}
		}
		return nil
	})
	if err != nil {
		return ir.Module{}, err
	}
	return placed, nil
}

func (e *Engine) onGrid(p ir.GridPos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < e.gridWidth && p.Y < e.gridHeight
}

// Remove takes a module off its owner's page and returns the item to the
// owner's inventory. A set-up module is torn down first, refunding its setup.
func (e *Engine) Remove(ctx context.Context, moduleID string) error {
	_, err := e.exec(ctx, moduleID, func(tx Tx, now time.Time, rec *record) error {
		m, _, err := e.loadModule(tx, moduleID)
		if err != nil {
			return err
		}

		var refund []ir.ItemQty
		if m.State == ir.SetUp {
			refund = m.SetupPaid
			if err := credit(tx, m.Owner, refund); err != nil {
				return err
			}
		}
		if err := tx.AddItem(m.Owner, m.Item, 1); err != nil {
			return err
		}
		if err := tx.DeleteModule(m.ID); err != nil {
			return err
		}

		rec.kind = ir.KindRemove
		rec.actor = m.Owner
		rec.detail = ir.Object{
			"item":   ir.String(m.Item),
			"refund": ir.ItemsValue(refund),
		}
		return nil
	})
	return err
}

// Setup consumes the module's setup cost from the owner and makes the module
// clickable. Already set up is a no-op. Trade editors pay the module's saved
// trade, falling back to the catalog default; other items pay the itemized list.
// The harvest clock restarts at setup.
func (e *Engine) Setup(ctx context.Context, moduleID string) (ir.Module, error) {
	var out ir.Module
	_, err := e.exec(ctx, moduleID, func(tx Tx, now time.Time, rec *record) error {
		m, info, err := e.loadModule(tx, moduleID)
		if err != nil {
			return err
		}
		out = m
		if !info.Setupable() {
			return newError(CodeNotSetupable, m.ID, m.Owner, "%s has no setup requirement", m.Item)
		}
		if m.State == ir.SetUp {
			return nil
		}

		cost, err := setupCost(m, info)
		if err != nil {
			return err
		}
		if err := debit(tx, m.ID, m.Owner, cost); err != nil {
			return err
		}

		m.State = ir.SetUp
		m.SetupPaid = cost
		m.LastHarvest = now
		if err := saveModule(tx, &m, info); err != nil {
			return err
		}
		out = m

		rec.kind = ir.KindSetup
		rec.actor = m.Owner
		rec.detail = ir.Object{"paid": ir.ItemsValue(cost)}
		return nil
	})
	if err != nil {
		return ir.Module{}, err
	}
	return out, nil
}

// setupCost resolves what setting up m costs right now.
func setupCost(m ir.Module, info catalog.ModuleInfo) ([]ir.ItemQty, error) {
	switch c := info.Setup.(type) {
	case catalog.TradeCost:
		trade := m.Trade
		if trade == nil {
			trade = c.Default
		}
		if trade == nil {
			return nil, newError(CodeTradeNotConfigured, m.ID, m.Owner, "save trade settings for %s first", m.Item)
		}
		return []ir.ItemQty{*trade}, nil
	case catalog.ItemizedCost:
		return append([]ir.ItemQty(nil), c.Items...), nil
	}
	return nil, newError(CodeNotSetupable, m.ID, m.Owner, "%s has no setup requirement", m.Item)
}

// Teardown refunds exactly what the last setup consumed and returns the
// module to NeedsSetup. A module that is not set up is left alone.
func (e *Engine) Teardown(ctx context.Context, moduleID string) (ir.Module, error) {
	var out ir.Module
	_, err := e.exec(ctx, moduleID, func(tx Tx, now time.Time, rec *record) error {
		m, info, err := e.loadModule(tx, moduleID)
		if err != nil {
			return err
		}
		out = m
		if m.State != ir.SetUp {
			return nil
		}

		refund := m.SetupPaid
		if err := credit(tx, m.Owner, refund); err != nil {
			return err
		}
		m.State = ir.NeedsSetup
		m.SetupPaid = nil
		if err := saveModule(tx, &m, info); err != nil {
			return err
		}
		out = m

		rec.kind = ir.KindTeardown
		rec.actor = m.Owner
		rec.detail = ir.Object{"refund": ir.ItemsValue(refund)}
		return nil
	})
	if err != nil {
		return ir.Module{}, err
	}
	return out, nil
}

// HarvestResult is the outcome of a harvest.
type HarvestResult struct {
	Module ir.Module `json:"module"`
	Yield  Yield     `json:"yield"`
}

// Harvest credits the module's computed yield to its owner and restarts
// accrual, carrying the time and click remainders forward. A set-up module
// drops back to NeedsSetup: its setup materials are spent.
func (e *Engine) Harvest(ctx context.Context, moduleID string) (HarvestResult, error) {
	var res HarvestResult
	_, err := e.exec(ctx, moduleID, func(tx Tx, now time.Time, rec *record) error {
		m, info, err := e.loadModule(tx, moduleID)
		if err != nil {
			return err
		}

		y := ComputeYield(AccrualOf(m), info, now)
		if y.Quantity > 0 {
			if err := tx.AddItem(m.Owner, y.Item, y.Quantity); err != nil {
				return err
			}
		}

		m.LastHarvest = now.Add(-y.TimeRemainder).Truncate(time.Microsecond)
		m.ClicksSinceHarvest = y.ClickRemainder
		if m.State == ir.SetUp {
			m.State = ir.NeedsSetup
			m.SetupPaid = nil
		}
		if err := saveModule(tx, &m, info); err != nil {
			return err
		}
		res = HarvestResult{Module: m, Yield: y}

		rec.kind = ir.KindHarvest
		rec.actor = m.Owner
		rec.detail = ir.Object{
			"qty":               ir.Int(y.Quantity),
			"time_remainder_us": ir.Int(y.TimeRemainder.Microseconds()),
			"click_remainder":   ir.Int(y.ClickRemainder),
		}
		if y.Item != "" {
			rec.detail["item"] = ir.String(y.Item)
		}
		return nil
	})
	if err != nil {
		return HarvestResult{}, err
	}
	return res, nil
}

// Preview returns what Harvest would produce now without changing anything.
func (e *Engine) Preview(ctx context.Context, moduleID string) (Yield, error) {
	var y Yield
	now := e.now()
	err := e.store.InTx(ctx, func(tx *store.Tx) error {
		m, info, err := e.loadModule(tx, moduleID)
		if err != nil {
			return err
		}
		y = ComputeYield(AccrualOf(m), info, now)
		return nil
	})
	return y, err
}

// SaveTrade stores per-module trade settings for a trade-editor module.
// They take effect at the next setup.
func (e *Engine) SaveTrade(ctx context.Context, moduleID string, trade ir.ItemQty) (ir.Module, error) {
	if trade.Item == "" || trade.Qty <= 0 {
		return ir.Module{}, fmt.Errorf("trade needs an item and a positive quantity, got %d %q", trade.Qty, trade.Item)
	}
	var out ir.Module
	_, err := e.exec(ctx, moduleID, func(tx Tx, now time.Time, rec *record) error {
		m, info, err := e.loadModule(tx, moduleID)
		if err != nil {
			return err
		}
		if _, ok := info.Setup.(catalog.TradeCost); !ok {
			return newError(CodeNotSetupable, m.ID, m.Owner, "%s does not take trade settings", m.Item)
		}
		t := trade
		m.Trade = &t
		if err := saveModule(tx, &m, info); err != nil {
			return err
		}
		out = m

		rec.kind = ir.KindTrade
		rec.actor = m.Owner
		rec.detail = ir.Object{"item": ir.String(trade.Item), "qty": ir.Int(trade.Qty)}
		return nil
	})
	if err != nil {
		return ir.Module{}, err
	}
	return out, nil
}

// Module returns the current state of a module.
func (e *Engine) Module(ctx context.Context, moduleID string) (ir.Module, error) {
	m, err := e.store.Module(ctx, moduleID)
	if errors.Is(err, store.ErrNotFound) {
		return ir.Module{}, newError(CodeModuleNotFound, moduleID, "", "no module with this id")
	}
	return m, err
}
