package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/engine"
	"github.com/roach88/gridyield/internal/ir"
	"github.com/roach88/gridyield/internal/store"
	"github.com/roach88/gridyield/internal/testutil"
)

// Harness is the scenario execution engine. It owns one in-memory store, a
// manual clock and a scripted random source, so identical scenarios produce
// identical traces.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	clock   *testutil.ManualClock
	logger  *slog.Logger
	modules map[string]string // alias -> module id
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes engine and harness logs to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. Module ids are "m-1",
// "m-2", ... in placement order and interaction tokens "tok-1", "tok-2", ...
// An error is returned only when the scenario could not be executed at all;
// failed expectations and assertions are reported in the Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	cat, err := loadCatalog(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	start := scenario.Start
	if start.IsZero() {
		start = DefaultStart
	}
	clock := testutil.NewManualClock(start)

	rnd := testutil.NewScriptedRand(scenario.Rand.Floats, scenario.Rand.Ints)
	if fb := scenario.Rand.Fallback; fb != nil {
		rnd = rnd.WithFallback(fb.Float, fb.Int)
	}

	engOpts := []engine.Option{
		engine.WithLogger(cfg.logger),
		engine.WithClock(clock),
		engine.WithRand(rnd),
		engine.WithModuleIDs(engine.NewSequenceGenerator("m")),
		engine.WithTokens(engine.NewSequenceGenerator("tok")),
	}
	if scenario.DailyVotes > 0 {
		engOpts = append(engOpts, engine.WithDailyVotes(scenario.DailyVotes))
	}
	if g := scenario.Grid; g != nil {
		engOpts = append(engOpts, engine.WithGrid(g.Width, g.Height))
	}

	h := &Harness{
		store:   st,
		engine:  engine.New(st, cat, engOpts...),
		clock:   clock,
		logger:  cfg.logger,
		modules: make(map[string]string),
	}

	ctx := context.Background()
	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed world: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	for _, errMsg := range h.evaluate(ctx, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func loadCatalog(s *Scenario) (*catalog.Catalog, error) {
	if s.Catalog != "" {
		return catalog.LoadString(s.Catalog)
	}
	return catalog.LoadDir(s.CatalogPath)
}

// seed creates users, friendships and starting inventory. Inventory is
// applied in sorted order so seeding is deterministic.
func (h *Harness) seed(ctx context.Context, s *Scenario) error {
	for _, u := range s.Users {
		if _, err := h.engine.AddUser(ctx, u.ID, u.Networker); err != nil {
			return fmt.Errorf("user %s: %w", u.ID, err)
		}
	}
	for _, f := range s.Friends {
		status := ir.FriendshipFriend
		if f.Status != "" {
			status = ir.FriendshipStatus(f.Status)
		}
		if err := h.engine.Befriend(ctx, f.From, f.To, status); err != nil {
			return fmt.Errorf("friend %s -> %s: %w", f.From, f.To, err)
		}
	}

	users := make([]string, 0, len(s.Inventory))
	for u := range s.Inventory {
		users = append(users, u)
	}
	sort.Strings(users)
	for _, u := range users {
		items := make([]string, 0, len(s.Inventory[u]))
		for item := range s.Inventory[u] {
			items = append(items, item)
		}
		sort.Strings(items)
		for _, item := range items {
			if err := h.engine.Give(ctx, u, ir.ItemQty{Item: item, Qty: s.Inventory[u][item]}); err != nil {
				return fmt.Errorf("inventory %s/%s: %w", u, item, err)
			}
		}
	}
	return nil
}

// moduleID resolves a step's module reference: a bound alias or a raw id.
func (h *Harness) moduleID(ref string) string {
	if id, ok := h.modules[ref]; ok {
		return id
	}
	return ref
}

// executeStep runs one step, appends its trace event and checks its Expect clause.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) {
	args := stepArgs(step, h.moduleID(step.Module))
	out, err := h.dispatch(ctx, step)

	ev := TraceEvent{Step: index, Op: step.Op, Args: args, Outcome: OutcomeOK}
	if err != nil {
		ev.Outcome = OutcomeError
		if code := engine.CodeOf(err); code != "" {
			ev.Outcome = string(code)
		}
	} else {
		ev.Result = out
	}
	result.AddTrace(ev)

	h.logger.Debug("scenario step",
		"step", index,
		"op", step.Op,
		"outcome", ev.Outcome,
	)

	prefix := fmt.Sprintf("steps[%d] %s", index, step.Op)
	switch {
	case step.Expect != nil && step.Expect.Error != "":
		if err == nil {
			result.AddError(fmt.Sprintf("%s: expected error %s, got success", prefix, step.Expect.Error))
		} else if ev.Outcome != step.Expect.Error {
			result.AddError(fmt.Sprintf("%s: expected error %s, got %s (%v)", prefix, step.Expect.Error, ev.Outcome, err))
		}
	case err != nil:
		result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
	case step.Expect != nil && step.Expect.Result != nil:
		want, convErr := toObject(step.Expect.Result)
		if convErr != nil {
			result.AddError(fmt.Sprintf("%s: expect.result: %v", prefix, convErr))
			return
		}
		if msg := mismatch(want, out); msg != "" {
			result.AddError(fmt.Sprintf("%s: %s", prefix, msg))
		}
	}
}

// dispatch calls the engine for a step. A panic from an exhausted random
// script is reported as the step's error.
func (h *Harness) dispatch(ctx context.Context, step Step) (out ir.Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	id := h.moduleID(step.Module)
	switch step.Op {
	case OpPlace:
		m, err := h.engine.Place(ctx, step.User, step.Item, step.Pos)
		if err != nil {
			return nil, err
		}
		if step.As != "" {
			h.modules[step.As] = m.ID
		}
		return moduleValue(m), nil

	case OpRemove:
		if err := h.engine.Remove(ctx, id); err != nil {
			return nil, err
		}
		return ir.Object{"removed": ir.String(id)}, nil

	case OpSetup:
		m, err := h.engine.Setup(ctx, id)
		if err != nil {
			return nil, err
		}
		return moduleValue(m), nil

	case OpTeardown:
		m, err := h.engine.Teardown(ctx, id)
		if err != nil {
			return nil, err
		}
		return moduleValue(m), nil

	case OpHarvest:
		res, err := h.engine.Harvest(ctx, id)
		if err != nil {
			return nil, err
		}
		return ir.Object{"module": moduleValue(res.Module), "yield": yieldValue(res.Yield)}, nil

	case OpPreview:
		y, err := h.engine.Preview(ctx, id)
		if err != nil {
			return nil, err
		}
		return yieldValue(y), nil

	case OpClick:
		res, err := h.engine.Click(ctx, id, step.User)
		if err != nil {
			return nil, err
		}
		return clickValue(res), nil

	case OpPrize:
		res, err := h.engine.SelectPrize(ctx, id, step.User)
		if err != nil {
			return nil, err
		}
		return ir.Object{"draw": ir.Int(res.Draw), "prize": rewardValue(res.Prize)}, nil

	case OpTrade:
		m, err := h.engine.SaveTrade(ctx, id, ir.ItemQty{Item: step.Item, Qty: step.Qty})
		if err != nil {
			return nil, err
		}
		return moduleValue(m), nil

	case OpGive:
		if err := h.engine.Give(ctx, step.User, ir.ItemQty{Item: step.Item, Qty: step.Qty}); err != nil {
			return nil, err
		}
		return ir.Object{}, nil

	case OpAdvance:
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return nil, err
		}
		h.clock.Advance(d)
		return ir.Object{"now": timeValue(h.clock.Now())}, nil

	case OpRefresh:
		n, err := h.engine.RefreshAllowances(ctx)
		if err != nil {
			return nil, err
		}
		return ir.Object{"profiles": ir.Int(n)}, nil
	}
	return nil, fmt.Errorf("unknown op %q", step.Op)
}

// stepArgs lists the inputs a step was given, with the module resolved.
func stepArgs(step Step, moduleID string) ir.Object {
	args := ir.Object{}
	if step.User != "" {
		args["user"] = ir.String(step.User)
	}
	if step.Module != "" {
		args["module"] = ir.String(moduleID)
	}
	if step.Item != "" {
		args["item"] = ir.String(step.Item)
	}
	if step.Qty != 0 {
		args["qty"] = ir.Int(step.Qty)
	}
	if step.Pos != nil {
		args["pos"] = ir.Object{"x": ir.Int(step.Pos.X), "y": ir.Int(step.Pos.Y)}
	}
	if step.Duration != "" {
		args["duration"] = ir.String(step.Duration)
	}
	return args
}
