package engine

import (
	"time"

	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/ir"
)

const day = 24 * time.Hour

// Accrual is the per-module input to the yield calculation.
type Accrual struct {
	State       ir.SetupState
	LastHarvest time.Time
	Clicks      int64
}

// AccrualOf extracts the accrual fields of a module.
func AccrualOf(m ir.Module) Accrual {
	return Accrual{State: m.State, LastHarvest: m.LastHarvest, Clicks: m.ClicksSinceHarvest}
}

// Yield is what a harvest at a given instant produces.
//
// TimeRemainder and ClickRemainder are the accrual left over after whole
// yield units were taken; harvest carries them into the next cycle.
type Yield struct {
	Item           string        `json:"item,omitempty"`
	Quantity       int64         `json:"quantity"`
	TimeRemainder  time.Duration `json:"time_remainder"`
	ClickRemainder int64         `json:"click_remainder"`
}

// ComputeYield returns the harvestable yield of a module at now. Pure.
//
// A setupable module that is not set up yields nothing and carries nothing.
// An item without yield configuration likewise. Otherwise time and click
// yield are summed and capped at the configured max; the remainders are not
// affected by the cap.
func ComputeYield(acc Accrual, info catalog.ModuleInfo, now time.Time) Yield {
	if info.Setupable() && acc.State != ir.SetUp {
		return Yield{}
	}
	rate := info.Yield
	if rate == nil {
		return Yield{}
	}

	elapsed := now.Sub(acc.LastHarvest)
	if elapsed < 0 {
		elapsed = 0
	}

	var timeYield int64
	timeRem := elapsed
	if rate.PerDay > 0 {
		interval := day / time.Duration(rate.PerDay)
		if interval > 0 {
			timeYield = int64(elapsed / interval)
			timeRem = elapsed % interval
		}
	}

	var clickYield int64
	clickRem := acc.Clicks
	if rate.ClicksPerYield > 0 {
		clickYield = acc.Clicks / rate.ClicksPerYield
		clickRem = acc.Clicks % rate.ClicksPerYield
	}

	return Yield{
		Item:           rate.Item,
		Quantity:       min(timeYield+clickYield, rate.Max),
		TimeRemainder:  timeRem,
		ClickRemainder: clickRem,
	}
}
