package engine

import (
	"context"
	"time"

	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/ir"
)

// PrizeResult is the outcome of an arcade draw.
type PrizeResult struct {
	Draw  int    `json:"draw"`
	Prize Reward `json:"prize"`
}

// SelectPrize draws a prize from an arcade module's table and credits it to user.
func (e *Engine) SelectPrize(ctx context.Context, moduleID, user string) (PrizeResult, error) {
	user = ir.NormalizeUserID(user)
	var res PrizeResult
	_, err := e.exec(ctx, moduleID, func(tx Tx, now time.Time, rec *record) error {
		m, info, err := e.loadModule(tx, moduleID)
		if err != nil {
			return err
		}
		if _, err := loadProfile(tx, user); err != nil {
			return err
		}

		draw := e.rand.IntN(100)
		prize, ok := pickPrize(info.ArcadePrizes, draw)
		if !ok {
			e.logger.Error("prize table selected nothing",
				"code", string(CodePrizeTableMisconfigured),
				"module", m.ID,
				"item", m.Item,
				"draw", draw,
			)
			return newError(CodePrizeTableMisconfigured, m.ID, user,
				"draw %d selected nothing from %d prizes", draw, len(info.ArcadePrizes))
		}
		if err := tx.AddItem(user, prize.Item, prize.Qty); err != nil {
			return err
		}

		res = PrizeResult{
			Draw:  draw,
			Prize: Reward{Recipient: user, Item: prize.Item, Qty: prize.Qty, Source: SourcePrize},
		}
		rec.kind = ir.KindPrize
		rec.actor = user
		rec.detail = ir.Object{
			"draw": ir.Int(draw),
			"item": ir.String(prize.Item),
			"qty":  ir.Int(prize.Qty),
		}
		return nil
	})
	if err != nil {
		return PrizeResult{}, err
	}
	return res, nil
}

// pickPrize walks prizes in declaration order, accumulating success rates.
// The first prize whose cumulative rate exceeds draw wins.
func pickPrize(prizes []catalog.ArcadePrize, draw int) (catalog.ArcadePrize, bool) {
	var cumulative int64
	for _, p := range prizes {
		cumulative += p.SuccessRate
		if cumulative > int64(draw) {
			return p, true
		}
	}
	return catalog.ArcadePrize{}, false
}
