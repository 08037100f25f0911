package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/ir"
)

func TestComputeYield(t *testing.T) {
	cat := loadTestCatalog(t)
	info := func(item string) catalog.ModuleInfo {
		m, ok := cat.Module(item)
		if !ok {
			t.Fatalf("catalog has no %s", item)
		}
		return m
	}

	tests := []struct {
		name    string
		item    string
		acc     Accrual
		elapsed time.Duration
		want    Yield
	}{
		{
			name:    "half day at two per day yields one with no remainder",
			item:    "stand",
			acc:     Accrual{State: ir.SetUp, LastHarvest: epoch},
			elapsed: 12 * time.Hour,
			want:    Yield{Item: "lemon", Quantity: 1},
		},
		{
			name:    "time remainder carries the partial interval",
			item:    "stand",
			acc:     Accrual{State: ir.SetUp, LastHarvest: epoch},
			elapsed: 13*time.Hour + 30*time.Minute,
			want:    Yield{Item: "lemon", Quantity: 1, TimeRemainder: 90 * time.Minute},
		},
		{
			name:    "setupable module not set up yields nothing",
			item:    "stand",
			acc:     Accrual{State: ir.NeedsSetup, LastHarvest: epoch, Clicks: 9},
			elapsed: 48 * time.Hour,
			want:    Yield{},
		},
		{
			name:    "click yield with click remainder",
			item:    "pinwheel",
			acc:     Accrual{State: ir.NotApplicable, LastHarvest: epoch, Clicks: 7},
			elapsed: 5 * time.Hour,
			want:    Yield{Item: "breeze", Quantity: 2, TimeRemainder: 5 * time.Hour, ClickRemainder: 1},
		},
		{
			name:    "per_day zero carries all elapsed time",
			item:    "sundial",
			acc:     Accrual{State: ir.NotApplicable, LastHarvest: epoch},
			elapsed: 72 * time.Hour,
			want:    Yield{Item: "tick", Quantity: 0, TimeRemainder: 72 * time.Hour},
		},
		{
			name:    "max caps the total but not the remainders",
			item:    "drill",
			acc:     Accrual{State: ir.NotApplicable, LastHarvest: epoch},
			elapsed: 10*time.Hour + 20*time.Minute,
			want:    Yield{Item: "ore", Quantity: 5, TimeRemainder: 20 * time.Minute},
		},
		{
			name:    "no yield configuration",
			item:    "rock",
			acc:     Accrual{State: ir.NotApplicable, LastHarvest: epoch, Clicks: 4},
			elapsed: 24 * time.Hour,
			want:    Yield{},
		},
		{
			name:    "clock moved backwards clamps elapsed to zero",
			item:    "drill",
			acc:     Accrual{State: ir.NotApplicable, LastHarvest: epoch},
			elapsed: -3 * time.Hour,
			want:    Yield{Item: "ore"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeYield(tt.acc, info(tt.item), epoch.Add(tt.elapsed))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeYield_Pure(t *testing.T) {
	cat := loadTestCatalog(t)
	info, _ := cat.Module("drill")
	acc := Accrual{State: ir.NotApplicable, LastHarvest: epoch, Clicks: 2}
	now := epoch.Add(3 * time.Hour)

	first := ComputeYield(acc, info, now)
	second := ComputeYield(acc, info, now)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(3), first.Quantity)
}

func TestComputeYield_PerDayRemainderGrowsUntilHarvest(t *testing.T) {
	cat := loadTestCatalog(t)
	info, _ := cat.Module("sundial")
	acc := Accrual{State: ir.NotApplicable, LastHarvest: epoch}

	var prev time.Duration
	for h := 1; h <= 5; h++ {
		y := ComputeYield(acc, info, epoch.Add(time.Duration(h)*time.Hour))
		assert.Zero(t, y.Quantity)
		assert.Greater(t, y.TimeRemainder, prev)
		prev = y.TimeRemainder
	}
}
