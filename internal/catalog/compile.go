package catalog

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/gridyield/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// moduleDoc mirrors #Module in schema.cue. CUE decodes through json tags.
type moduleDoc struct {
	Name          string          `json:"name"`
	Editor        string          `json:"editor"`
	Yield         *YieldRate      `json:"yield"`
	Setup         []ir.ItemQty    `json:"setup"`
	Trade         *ir.ItemQty     `json:"trade"`
	ExecutionCost []ir.ItemQty    `json:"execution_cost"`
	GuestYield    []ChanceYield   `json:"guest_yield"`
	OwnerYield    []ChanceYield   `json:"owner_yield"`
	FriendMessage []FriendMessage `json:"friend_message"`
	ArcadePrize   []ArcadePrize   `json:"arcade_prize"`
}

// Compile turns a CUE value holding a `module` struct into a Catalog.
// The value is unified with the embedded schema first, so shape errors carry
// source positions.
func Compile(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	modulesVal := unified.LookupPath(cue.ParsePath("module"))
	if !modulesVal.Exists() {
		return nil, &CompileError{Field: "module", Message: "no module entries found", Pos: v.Pos()}
	}

	iter, err := modulesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	cat := &Catalog{Modules: make(map[string]ModuleInfo)}
	for iter.Next() {
		item := iter.Label()
		var doc moduleDoc
		if err := iter.Value().Decode(&doc); err != nil {
			return nil, formatCUEError(err)
		}
		info, err := resolve(item, doc)
		if err != nil {
			if ce, ok := err.(*CompileError); ok && !ce.Pos.IsValid() {
				ce.Pos = iter.Value().Pos()
			}
			return nil, err
		}
		cat.Modules[item] = info
	}

	if len(cat.Modules) == 0 {
		return nil, &CompileError{Field: "module", Message: "no module entries found", Pos: v.Pos()}
	}

	digest, err := ir.CatalogDigest(cat.canonical())
	if err != nil {
		return nil, err
	}
	cat.Digest = digest
	return cat, nil
}

// resolve applies the editor-type dispatch and builds the ModuleInfo.
func resolve(item string, doc moduleDoc) (ModuleInfo, error) {
	editor := EditorType(doc.Editor)
	if !editor.Known() {
		return ModuleInfo{}, &CompileError{
			Field:   "module." + item + ".editor",
			Message: fmt.Sprintf("unknown editor type %q", doc.Editor),
		}
	}

	info := ModuleInfo{
		Item:           item,
		Name:           doc.Name,
		Editor:         editor,
		Yield:          doc.Yield,
		ExecutionCost:  doc.ExecutionCost,
		GuestYields:    doc.GuestYield,
		OwnerYields:    doc.OwnerYield,
		FriendMessages: doc.FriendMessage,
		ArcadePrizes:   doc.ArcadePrize,
	}

	switch {
	case editor.IsTrade():
		if len(doc.Setup) > 0 {
			return ModuleInfo{}, &CompileError{
				Field:   "module." + item + ".setup",
				Message: fmt.Sprintf("%s editors take a trade, not a setup list", editor),
			}
		}
		info.Setup = TradeCost{Default: doc.Trade}
	case doc.Trade != nil:
		return ModuleInfo{}, &CompileError{
			Field:   "module." + item + ".trade",
			Message: fmt.Sprintf("trade settings need a trade editor, got %q", doc.Editor),
		}
	case len(doc.Setup) > 0:
		info.Setup = ItemizedCost{Items: doc.Setup}
	}

	if len(info.ArcadePrizes) > 0 && !editor.IsArcade() {
		return ModuleInfo{}, &CompileError{
			Field:   "module." + item + ".arcade_prize",
			Message: fmt.Sprintf("arcade prizes need an arcade editor, got %q", doc.Editor),
		}
	}

	return info, nil
}

// canonical renders the catalog as an ir.Object for digesting.
func (c *Catalog) canonical() ir.Object {
	mods := make(ir.Object, len(c.Modules))
	for id, m := range c.Modules {
		obj := ir.Object{
			"editor":         ir.String(m.Editor),
			"execution_cost": ir.ItemsValue(m.ExecutionCost),
			"guest_yield":    chancesValue(m.GuestYields),
			"owner_yield":    chancesValue(m.OwnerYields),
			"name":           ir.String(m.Name),
		}
		if m.Yield != nil {
			obj["yield"] = ir.Object{
				"item":             ir.String(m.Yield.Item),
				"per_day":          ir.Int(m.Yield.PerDay),
				"clicks_per_yield": ir.Int(m.Yield.ClicksPerYield),
				"max":              ir.Int(m.Yield.Max),
			}
		}
		switch s := m.Setup.(type) {
		case TradeCost:
			setup := ir.Object{"kind": ir.String(s.Kind().String())}
			if s.Default != nil {
				setup["default"] = ir.ItemsValue([]ir.ItemQty{*s.Default})
			}
			obj["setup"] = setup
		case ItemizedCost:
			obj["setup"] = ir.Object{
				"kind":  ir.String(s.Kind().String()),
				"items": ir.ItemsValue(s.Items),
			}
		}
		msgs := make(ir.Array, len(m.FriendMessages))
		for i, fm := range m.FriendMessages {
			msgs[i] = ir.Object{"template": ir.String(fm.Template), "probability": ir.Int(fm.Probability)}
		}
		obj["friend_message"] = msgs
		prizes := make(ir.Array, len(m.ArcadePrizes))
		for i, p := range m.ArcadePrizes {
			prizes[i] = ir.Object{"item": ir.String(p.Item), "qty": ir.Int(p.Qty), "success_rate": ir.Int(p.SuccessRate)}
		}
		obj["arcade_prize"] = prizes
		mods[id] = obj
	}
	return ir.Object{"module": mods}
}

func chancesValue(cs []ChanceYield) ir.Array {
	arr := make(ir.Array, len(cs))
	for i, c := range cs {
		arr[i] = ir.Object{"item": ir.String(c.Item), "qty": ir.Int(c.Qty), "probability": ir.Int(c.Probability)}
	}
	return arr
}

// CompileError is a catalog compilation failure with an optional CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
