package harness

import (
	"fmt"
	"time"

	"github.com/roach88/gridyield/internal/engine"
	"github.com/roach88/gridyield/internal/ir"
)

// timeValue renders a timestamp the way traces store it.
func timeValue(t time.Time) ir.String {
	return ir.String(t.UTC().Format(time.RFC3339Nano))
}

func moduleValue(m ir.Module) ir.Object {
	obj := ir.Object{
		"id":                   ir.String(m.ID),
		"owner":                ir.String(m.Owner),
		"item":                 ir.String(m.Item),
		"state":                ir.String(m.State.String()),
		"last_harvest":         timeValue(m.LastHarvest),
		"clicks_since_harvest": ir.Int(m.ClicksSinceHarvest),
		"total_clicks":         ir.Int(m.TotalClicks),
		"setup_paid":           ir.ItemsValue(m.SetupPaid),
	}
	if m.Pos != nil {
		obj["pos"] = ir.Object{"x": ir.Int(m.Pos.X), "y": ir.Int(m.Pos.Y)}
	}
	if m.Trade != nil {
		obj["trade"] = ir.Object{"item": ir.String(m.Trade.Item), "qty": ir.Int(m.Trade.Qty)}
	}
	return obj
}

func yieldValue(y engine.Yield) ir.Object {
	obj := ir.Object{
		"quantity":        ir.Int(y.Quantity),
		"time_remainder":  ir.String(y.TimeRemainder.String()),
		"click_remainder": ir.Int(y.ClickRemainder),
	}
	if y.Item != "" {
		obj["item"] = ir.String(y.Item)
	}
	return obj
}

func rewardValue(r engine.Reward) ir.Object {
	return ir.Object{
		"recipient": ir.String(r.Recipient),
		"item":      ir.String(r.Item),
		"qty":       ir.Int(r.Qty),
		"source":    ir.String(r.Source),
	}
}

func clickValue(res engine.ClickResult) ir.Object {
	rewards := make(ir.Array, len(res.Rewards))
	for i, r := range res.Rewards {
		rewards[i] = rewardValue(r)
	}
	messages := make(ir.Array, len(res.Messages))
	for i, m := range res.Messages {
		messages[i] = ir.Object{
			"sender":    ir.String(m.Sender),
			"recipient": ir.String(m.Recipient),
			"template":  ir.String(m.Template),
		}
	}
	obj := ir.Object{
		"module":   moduleValue(res.Module),
		"rewards":  rewards,
		"messages": messages,
	}
	if g := res.GuestYield; g != nil {
		obj["guest_yield"] = ir.Object{
			"item":        ir.String(g.Item),
			"qty":         ir.Int(g.Qty),
			"probability": ir.Int(g.Probability),
		}
	}
	return obj
}

// toValue converts a YAML-decoded value to an ir.Value.
// Whole floats are accepted as ints; fractional floats and nulls are not.
func toValue(val interface{}) (ir.Value, error) {
	switch v := val.(type) {
	case nil:
		return nil, fmt.Errorf("null values are not comparable")
	case string:
		return ir.String(v), nil
	case int:
		return ir.Int(int64(v)), nil
	case int64:
		return ir.Int(v), nil
	case uint64:
		return ir.Int(int64(v)), nil
	case float64:
		if v == float64(int64(v)) {
			return ir.Int(int64(v)), nil
		}
		return nil, fmt.Errorf("fractional numbers are not comparable: %v", v)
	case bool:
		return ir.Bool(v), nil
	case []interface{}:
		arr := make(ir.Array, len(v))
		for i, elem := range v {
			e, err := toValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]interface{}:
		return toObject(v)
	default:
		return nil, fmt.Errorf("unsupported type %T", val)
	}
}

func toObject(m map[string]interface{}) (ir.Object, error) {
	obj := make(ir.Object, len(m))
	for k, v := range m {
		conv, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		obj[k] = conv
	}
	return obj, nil
}

// matchValue reports whether actual contains expected. Objects match as
// subsets, recursively; arrays must have the same length and match
// element-wise; scalars must be equal.
func matchValue(expected, actual ir.Value) bool {
	switch exp := expected.(type) {
	case ir.Object:
		act, ok := actual.(ir.Object)
		if !ok {
			return false
		}
		for k, ev := range exp {
			av, ok := act[k]
			if !ok || !matchValue(ev, av) {
				return false
			}
		}
		return true
	case ir.Array:
		act, ok := actual.(ir.Array)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !matchValue(exp[i], act[i]) {
				return false
			}
		}
		return true
	default:
		return expected == actual
	}
}

// mismatch describes the first key of expected that actual fails to match.
func mismatch(expected, actual ir.Object) string {
	for _, k := range expected.SortedKeys() {
		av, ok := actual[k]
		if !ok {
			return fmt.Sprintf("field %q missing", k)
		}
		if !matchValue(expected[k], av) {
			want, _ := ir.MarshalCanonical(expected[k])
			got, _ := ir.MarshalCanonical(av)
			return fmt.Sprintf("field %q = %s, want %s", k, got, want)
		}
	}
	return ""
}
