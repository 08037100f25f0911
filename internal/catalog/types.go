package catalog

import (
	"sort"

	"github.com/roach88/gridyield/internal/ir"
)

// Catalog is the compiled, read-only module configuration.
type Catalog struct {
	Modules map[string]ModuleInfo `json:"modules"`

	// Digest is the domain-separated SHA-256 of the canonical catalog.
	Digest string `json:"digest"`
}

// Module returns the configuration for a module item.
func (c *Catalog) Module(item string) (ModuleInfo, bool) {
	if c == nil {
		return ModuleInfo{}, false
	}
	info, ok := c.Modules[item]
	return info, ok
}

// Items returns module item ids in sorted order.
func (c *Catalog) Items() []string {
	ids := make([]string, 0, len(c.Modules))
	for id := range c.Modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ModuleInfo is the static configuration of one module item.
type ModuleInfo struct {
	Item   string     `json:"item"`
	Name   string     `json:"name,omitempty"`
	Editor EditorType `json:"editor,omitempty"`

	// Yield is nil when the item never produces harvestable yield.
	Yield *YieldRate `json:"yield,omitempty"`

	// Setup is nil when the item has no setup concept.
	Setup SetupCost `json:"-"`

	ExecutionCost  []ir.ItemQty    `json:"execution_cost,omitempty"`
	GuestYields    []ChanceYield   `json:"guest_yield,omitempty"`
	OwnerYields    []ChanceYield   `json:"owner_yield,omitempty"`
	FriendMessages []FriendMessage `json:"friend_message,omitempty"`

	// ArcadePrizes keeps declaration order; selection walks it in order.
	ArcadePrizes []ArcadePrize `json:"arcade_prize,omitempty"`
}

// Setupable reports whether modules of this item have a setup requirement.
func (m ModuleInfo) Setupable() bool {
	return m.Setup != nil
}

// YieldRate is the harvest configuration of a module item.
type YieldRate struct {
	Item           string `json:"item"`
	PerDay         int64  `json:"per_day"`
	ClicksPerYield int64  `json:"clicks_per_yield"`
	Max            int64  `json:"max"`
}

// ChanceYield is a per-click reward credited when a roll succeeds.
type ChanceYield struct {
	Item        string `json:"item"`
	Qty         int64  `json:"qty"`
	Probability int64  `json:"probability"` // percent, 0..100
}

// FriendMessage is a per-click chance to message one of the owner's friends.
type FriendMessage struct {
	Template    string `json:"template"`
	Probability int64  `json:"probability"` // percent, 0..100
}

// ArcadePrize is one row of an arcade prize table.
type ArcadePrize struct {
	Item        string `json:"item"`
	Qty         int64  `json:"qty"`
	SuccessRate int64  `json:"success_rate"`
}

// SetupKind tags the setup-cost variant.
type SetupKind uint8

const (
	SetupTrade SetupKind = iota + 1
	SetupItemized
)

func (k SetupKind) String() string {
	switch k {
	case SetupTrade:
		return "trade"
	case SetupItemized:
		return "itemized"
	}
	return "none"
}

// SetupCost is the tagged setup-cost variant: TradeCost or ItemizedCost.
type SetupCost interface {
	Kind() SetupKind
}

// TradeCost is a single item/quantity chosen by the owner per module.
// Default applies when the owner has not saved trade settings.
type TradeCost struct {
	Default *ir.ItemQty
}

// Kind implements SetupCost.
func (TradeCost) Kind() SetupKind { return SetupTrade }

// ItemizedCost is a fixed list of items consumed by setup.
type ItemizedCost struct {
	Items []ir.ItemQty
}

// Kind implements SetupCost.
func (ItemizedCost) Kind() SetupKind { return SetupItemized }
