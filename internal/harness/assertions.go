package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/gridyield/internal/ir"
	"github.com/roach88/gridyield/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// evaluate runs every assertion and returns the failure messages.
func (h *Harness) evaluate(ctx context.Context, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertInventory:
			err = h.assertInventory(ctx, a)
		case AssertVotes:
			err = h.assertVotes(ctx, a)
		case AssertModule:
			err = h.assertModule(ctx, a)
		case AssertMessages:
			err = h.assertMessages(ctx, a)
		case AssertInteractions:
			err = h.assertInteractions(ctx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertInventory checks one item count. A missing row counts as zero.
func (h *Harness) assertInventory(ctx context.Context, a Assertion) error {
	items, err := h.store.Inventory(ctx, ir.NormalizeUserID(a.User))
	if err != nil {
		return err
	}
	var got int64
	for _, it := range items {
		if it.Item == a.Item {
			got = it.Qty
		}
	}
	if got != *a.Qty {
		return &AssertionError{
			Type:     AssertInventory,
			Expected: fmt.Sprintf("%s holds %d %s", a.User, *a.Qty, a.Item),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func (h *Harness) assertVotes(ctx context.Context, a Assertion) error {
	p, err := h.store.Profile(ctx, ir.NormalizeUserID(a.User))
	if err != nil {
		return err
	}
	if p.AvailableVotes != *a.Qty {
		return &AssertionError{
			Type:     AssertVotes,
			Expected: fmt.Sprintf("%s has %d votes", a.User, *a.Qty),
			Actual:   fmt.Sprintf("%d", p.AvailableVotes),
		}
	}
	return nil
}

func (h *Harness) assertModule(ctx context.Context, a Assertion) error {
	id := h.moduleID(a.Module)
	m, err := h.store.Module(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		if a.Absent {
			return nil
		}
		return &AssertionError{
			Type:     AssertModule,
			Expected: fmt.Sprintf("module %s exists", id),
			Actual:   "not found",
		}
	}
	if err != nil {
		return err
	}
	if a.Absent {
		return &AssertionError{
			Type:     AssertModule,
			Expected: fmt.Sprintf("module %s removed", id),
			Actual:   fmt.Sprintf("present in state %s", m.State),
		}
	}

	want, err := toObject(a.Expect)
	if err != nil {
		return fmt.Errorf("expect: %w", err)
	}
	if msg := mismatch(want, moduleValue(m)); msg != "" {
		return &AssertionError{
			Type:     AssertModule,
			Expected: fmt.Sprintf("module %s matches %v", id, a.Expect),
			Actual:   msg,
		}
	}
	return nil
}

// assertMessages counts messages, to one recipient when User is set.
func (h *Harness) assertMessages(ctx context.Context, a Assertion) error {
	msgs, err := h.store.Messages(ctx, ir.NormalizeUserID(a.User))
	if err != nil {
		return err
	}
	if len(msgs) != *a.Count {
		return &AssertionError{
			Type:     AssertMessages,
			Expected: fmt.Sprintf("%d messages%s", *a.Count, forUser(a.User)),
			Actual:   fmt.Sprintf("%d messages", len(msgs)),
		}
	}
	return nil
}

// assertInteractions counts audit rows, filtered by module, actor and kind
// when those are set.
func (h *Harness) assertInteractions(ctx context.Context, a Assertion) error {
	filter := store.InteractionFilter{Actor: ir.NormalizeUserID(a.User)}
	if a.Module != "" {
		filter.ModuleID = h.moduleID(a.Module)
	}
	rows, err := h.store.Interactions(ctx, filter)
	if err != nil {
		return err
	}
	n := 0
	for _, in := range rows {
		if a.Kind == "" || string(in.Kind) == a.Kind {
			n++
		}
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertInteractions,
			Expected: fmt.Sprintf("%d %s interactions%s", *a.Count, a.Kind, forUser(a.User)),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}

func forUser(user string) string {
	if user == "" {
		return ""
	}
	return " for " + user
}
