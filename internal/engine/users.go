package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/gridyield/internal/ir"
	"github.com/roach88/gridyield/internal/store"
)

// AddUser creates a profile holding the daily allowance. An existing profile
// keeps its allowance and only has its networker flag updated.
func (e *Engine) AddUser(ctx context.Context, userID string, networker bool) (ir.Profile, error) {
	userID = ir.NormalizeUserID(userID)
	if userID == "" {
		return ir.Profile{}, fmt.Errorf("user id is empty")
	}
	var p ir.Profile
	err := e.store.InTx(ctx, func(tx *store.Tx) error {
		existing, err := tx.Profile(userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			p = ir.Profile{UserID: userID, AvailableVotes: e.dailyVotes}
		case err != nil:
			return err
		default:
			p = existing
		}
		p.IsNetworker = networker
		return tx.SaveProfile(p)
	})
	if err != nil {
		return ir.Profile{}, err
	}
	e.logger.Debug("user saved", "user", userID, "networker", networker)
	return p, nil
}

// Befriend records a friendship from one user to another with the given status.
func (e *Engine) Befriend(ctx context.Context, from, to string, status ir.FriendshipStatus) error {
	from, to = ir.NormalizeUserID(from), ir.NormalizeUserID(to)
	if from == to {
		return newError(CodeSelfInteraction, "", from, "cannot befriend yourself")
	}
	err := e.store.InTx(ctx, func(tx *store.Tx) error {
		return tx.SaveFriendship(ir.Friendship{From: from, To: to, Status: status})
	})
	if errors.Is(err, store.ErrNotFound) {
		return newError(CodeUnknownUser, "", "", "%s or %s has no profile", from, to)
	}
	return err
}

// Give credits items to a user's inventory.
func (e *Engine) Give(ctx context.Context, userID string, item ir.ItemQty) error {
	userID = ir.NormalizeUserID(userID)
	err := e.store.InTx(ctx, func(tx *store.Tx) error {
		if _, err := loadProfile(tx, userID); err != nil {
			return err
		}
		return tx.AddItem(userID, item.Item, item.Qty)
	})
	return err
}

// RefreshAllowances restores every regular user's allowance to the daily
// value and returns how many profiles changed. Networkers are skipped.
func (e *Engine) RefreshAllowances(ctx context.Context) (int64, error) {
	var n int64
	err := e.store.InTx(ctx, func(tx *store.Tx) error {
		var err error
		n, err = tx.RefreshVotes(e.dailyVotes)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("refresh allowances: %w", err)
	}
	e.logger.Info("allowances refreshed", "profiles", n, "votes", e.dailyVotes)
	return n, nil
}
