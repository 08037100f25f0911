package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/gridyield/internal/ir"
)

// marshalItems converts an item list to canonical JSON TEXT for storage.
func marshalItems(items []ir.ItemQty) (string, error) {
	data, err := ir.MarshalCanonical(ir.ItemsValue(items))
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}
	return string(data), nil
}

// unmarshalItems parses an item list. An empty list decodes to nil so a
// module that never paid for setup compares equal to a fresh one.
func unmarshalItems(data string) ([]ir.ItemQty, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var items []ir.ItemQty
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return items, nil
}

// marshalDetail converts an interaction detail object to canonical JSON TEXT.
func marshalDetail(detail ir.Object) (string, error) {
	if detail == nil {
		detail = ir.Object{}
	}
	data, err := ir.MarshalCanonical(detail)
	if err != nil {
		return "", fmt.Errorf("marshal detail: %w", err)
	}
	return string(data), nil
}

// unmarshalDetail parses canonical JSON TEXT to an Object.
// Uses ir.Object.UnmarshalJSON, which keeps integers exact via json.Number.
func unmarshalDetail(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal detail: %w", err)
	}
	return obj, nil
}
