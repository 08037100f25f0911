package engine

import (
	"context"
	"time"

	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/ir"
)

// Reward sources.
const (
	SourceGuest = "guest"
	SourceOwner = "owner"
	SourcePrize = "prize"
)

// Reward is one item credit that fired during an operation.
type Reward struct {
	Recipient string `json:"recipient"`
	Item      string `json:"item"`
	Qty       int64  `json:"qty"`
	Source    string `json:"source"`
}

// ClickResult is the outcome of a visitor click.
type ClickResult struct {
	Module ir.Module `json:"module"`

	// GuestYield is the last guest-yield entry evaluated, whether or not its
	// roll succeeded. Nil when the item has no guest yields.
	GuestYield *catalog.ChanceYield `json:"guest_yield,omitempty"`

	Rewards  []Reward     `json:"rewards"`
	Messages []ir.Message `json:"messages"`
}

// Click records a visit by visitor to a module and distributes its rewards.
//
// In order: the visitor may not own the module; one vote is spent from the
// visitor's allowance; the module must be clickable; click counters advance;
// execution costs are taken from the visitor; guest yields, owner yields and
// friend messages are each rolled independently; and a set-up module owned
// by a regular user needs setup again. Any failure rolls back every step.
func (e *Engine) Click(ctx context.Context, moduleID, visitor string) (ClickResult, error) {
	visitor = ir.NormalizeUserID(visitor)
	var res ClickResult
	_, err := e.exec(ctx, moduleID, func(tx Tx, now time.Time, rec *record) error {
		m, info, err := e.loadModule(tx, moduleID)
		if err != nil {
			return err
		}
		if visitor == m.Owner {
			return newError(CodeSelfInteraction, m.ID, visitor, "owners cannot click their own modules")
		}

		guest, err := loadProfile(tx, visitor)
		if err != nil {
			return err
		}
		if guest.AvailableVotes <= 0 {
			return newError(CodeNoInteractionsRemaining, m.ID, visitor, "daily allowance spent")
		}
		guest.AvailableVotes--
		if err := tx.SaveProfile(guest); err != nil {
			return err
		}

		if !m.Clickable() {
			return newError(CodeNotClickable, m.ID, visitor, "module is %s", m.State)
		}

		m.ClicksSinceHarvest++
		m.TotalClicks++

		if err := debit(tx, m.ID, visitor, info.ExecutionCost); err != nil {
			return err
		}

		var rewards []Reward
		for i := range info.GuestYields {
			g := info.GuestYields[i]
			res.GuestYield = &g
			if !e.roll(g.Probability) {
				continue
			}
			if err := tx.AddItem(visitor, g.Item, g.Qty); err != nil {
				return err
			}
			rewards = append(rewards, Reward{Recipient: visitor, Item: g.Item, Qty: g.Qty, Source: SourceGuest})
		}
		for _, o := range info.OwnerYields {
			if !e.roll(o.Probability) {
				continue
			}
			if err := tx.AddItem(m.Owner, o.Item, o.Qty); err != nil {
				return err
			}
			rewards = append(rewards, Reward{Recipient: m.Owner, Item: o.Item, Qty: o.Qty, Source: SourceOwner})
		}

		messages, err := e.friendMessages(tx, m, info, now)
		if err != nil {
			return err
		}

		owner, err := loadProfile(tx, m.Owner)
		if err != nil {
			return err
		}
		if m.State == ir.SetUp && !owner.IsNetworker {
			m.State = ir.NeedsSetup
			m.SetupPaid = nil
		}
		if err := saveModule(tx, &m, info); err != nil {
			return err
		}

		res.Module = m
		res.Rewards = rewards
		res.Messages = messages

		rec.kind = ir.KindClick
		rec.actor = visitor
		rec.messages = messages
		rec.detail = ir.Object{
			"rewards":  rewardsValue(rewards),
			"messages": messagesValue(messages),
		}
		return nil
	})
	if err != nil {
		return ClickResult{}, err
	}
	if res.Rewards == nil {
		res.Rewards = []Reward{}
	}
	if res.Messages == nil {
		res.Messages = []ir.Message{}
	}
	return res, nil
}

// roll reports whether a chance of probability percent fires.
func (e *Engine) roll(probability int64) bool {
	return e.rand.Float64() < float64(probability)/100
}

// friendMessages rolls each friend-message entry and picks a recipient for
// those that fire. The friend pool is every accepted friend of the owner in
// either direction, networkers excluded. An empty pool skips the message.
func (e *Engine) friendMessages(tx Tx, m ir.Module, info catalog.ModuleInfo, now time.Time) ([]ir.Message, error) {
	var (
		out    []ir.Message
		pool   []string
		loaded bool
	)
	for _, fm := range info.FriendMessages {
		if !e.roll(fm.Probability) {
			continue
		}
		if !loaded {
			var err error
			if pool, err = tx.Friends(m.Owner, true); err != nil {
				return nil, err
			}
			loaded = true
		}
		if len(pool) == 0 {
			e.logger.Debug("friend message skipped",
				"code", string(CodeEmptyFriendPool),
				"module", m.ID,
				"owner", m.Owner,
				"template", fm.Template,
			)
			continue
		}
		friend := pool[e.rand.IntN(len(pool))]
		out = append(out, ir.Message{
			Sender:    m.Owner,
			Recipient: friend,
			Template:  fm.Template,
			SentAt:    now,
		})
	}
	return out, nil
}

func rewardsValue(rewards []Reward) ir.Array {
	arr := make(ir.Array, len(rewards))
	for i, r := range rewards {
		arr[i] = ir.Object{
			"recipient": ir.String(r.Recipient),
			"item":      ir.String(r.Item),
			"qty":       ir.Int(r.Qty),
			"source":    ir.String(r.Source),
		}
	}
	return arr
}

func messagesValue(messages []ir.Message) ir.Array {
	arr := make(ir.Array, len(messages))
	for i, m := range messages {
		arr[i] = ir.Object{
			"recipient": ir.String(m.Recipient),
			"template":  ir.String(m.Template),
		}
	}
	return arr
}
