package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gridyield/internal/ir"
)

// Scenario defines a deterministic run of the economy engine.
// The world is built from Users, Friends and Inventory, then Steps execute in
// order against a fresh in-memory store and Assertions check the end state.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog holds inline CUE source. Exactly one of Catalog and
	// CatalogPath must be set.
	Catalog string `yaml:"catalog,omitempty"`

	// CatalogPath is a .cue file or directory, relative to the scenario file.
	CatalogPath string `yaml:"catalog_path,omitempty"`

	// Start is the clock's initial reading. Defaults to 2024-01-01T00:00:00Z.
	Start time.Time `yaml:"start,omitempty"`

	// DailyVotes overrides the allowance when positive.
	DailyVotes int64 `yaml:"daily_votes,omitempty"`

	// Grid overrides the page size when set.
	Grid *GridSize `yaml:"grid,omitempty"`

	// Rand scripts every random draw the engine makes.
	Rand RandScript `yaml:"rand,omitempty"`

	Users     []UserDef                   `yaml:"users"`
	Friends   []FriendDef                 `yaml:"friends,omitempty"`
	Inventory map[string]map[string]int64 `yaml:"inventory,omitempty"`

	// Steps are the operations under test.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// GridSize is the width and height of every page.
type GridSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// RandScript is the sequence of random values served to the engine.
// Float64 draws take from Floats, IntN draws from Ints. Once a list is
// exhausted the fallback is used; without one the step fails.
type RandScript struct {
	Floats   []float64 `yaml:"floats,omitempty"`
	Ints     []int     `yaml:"ints,omitempty"`
	Fallback *Fallback `yaml:"fallback,omitempty"`
}

// Fallback values for an exhausted RandScript.
type Fallback struct {
	Float float64 `yaml:"float"`
	Int   int     `yaml:"int"`
}

// UserDef creates a profile with the daily allowance.
type UserDef struct {
	ID        string `yaml:"id"`
	Networker bool   `yaml:"networker,omitempty"`
}

// FriendDef records a friendship. Status defaults to "friend".
type FriendDef struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Status string `yaml:"status,omitempty"`
}

// Step is one engine operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	User   string      `yaml:"user,omitempty"`
	Module string      `yaml:"module,omitempty"`
	Item   string      `yaml:"item,omitempty"`
	Qty    int64       `yaml:"qty,omitempty"`
	Pos    *ir.GridPos `yaml:"pos,omitempty"`

	// Duration is the clock advance for "advance" steps (time.ParseDuration syntax).
	Duration string `yaml:"duration,omitempty"`

	// As binds the id of a placed module to a name later steps can use.
	As string `yaml:"as,omitempty"`

	// Expect validates the step outcome. Nil expects success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected engine error code (e.g. "NOT_CLICKABLE").
	Error string `yaml:"error,omitempty"`

	// Result is a subset match against the step's result object.
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// Step operations.
const (
	OpPlace    = "place"
	OpRemove   = "remove"
	OpSetup    = "setup"
	OpTeardown = "teardown"
	OpHarvest  = "harvest"
	OpPreview  = "preview"
	OpClick    = "click"
	OpPrize    = "prize"
	OpTrade    = "trade"
	OpGive     = "give"
	OpAdvance  = "advance"
	OpRefresh  = "refresh"
)

// stepFields lists what each op requires. true means required.
var stepFields = map[string]struct{ user, module, item, qty, duration bool }{
	OpPlace:    {user: true, item: true},
	OpRemove:   {module: true},
	OpSetup:    {module: true},
	OpTeardown: {module: true},
	OpHarvest:  {module: true},
	OpPreview:  {module: true},
	OpClick:    {user: true, module: true},
	OpPrize:    {user: true, module: true},
	OpTrade:    {module: true, item: true, qty: true},
	OpGive:     {user: true, item: true, qty: true},
	OpAdvance:  {duration: true},
	OpRefresh:  {},
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of inventory, votes, module, messages, interactions.
	Type string `yaml:"type"`

	User   string `yaml:"user,omitempty"`
	Module string `yaml:"module,omitempty"`
	Item   string `yaml:"item,omitempty"`
	Kind   string `yaml:"kind,omitempty"`

	// Qty is the expected quantity (inventory, votes).
	Qty *int64 `yaml:"qty,omitempty"`

	// Count is the expected number of rows (messages, interactions).
	Count *int `yaml:"count,omitempty"`

	// Expect is a subset match against the module object (module).
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Absent asserts the module no longer exists (module).
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertInventory    = "inventory"
	AssertVotes        = "votes"
	AssertModule       = "module"
	AssertMessages     = "messages"
	AssertInteractions = "interactions"
)

// DefaultStart is the clock reading scenarios start at unless they set one.
var DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected. A relative catalog_path is resolved against
// the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.CatalogPath != "" && !filepath.IsAbs(scenario.CatalogPath) {
		scenario.CatalogPath = filepath.Join(filepath.Dir(path), scenario.CatalogPath)
	}
	if scenario.CatalogPath != "" {
		if _, err := os.Stat(scenario.CatalogPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: catalog not found: %s", scenario.CatalogPath)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML held in memory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every .yaml and .yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Catalog == "") == (s.CatalogPath == "") {
		return fmt.Errorf("exactly one of catalog and catalog_path is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Grid != nil && (s.Grid.Width <= 0 || s.Grid.Height <= 0) {
		return fmt.Errorf("grid width and height must be positive")
	}

	users := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		if u.ID == "" {
			return fmt.Errorf("users[%d]: id is required", i)
		}
		users[u.ID] = true
	}
	for i, f := range s.Friends {
		if !users[f.From] || !users[f.To] {
			return fmt.Errorf("friends[%d]: %s and %s must both be declared users", i, f.From, f.To)
		}
		if f.Status != "" && !ir.ValidFriendshipStatuses[ir.FriendshipStatus(f.Status)] {
			return fmt.Errorf("friends[%d]: unknown status %q", i, f.Status)
		}
	}
	for user, items := range s.Inventory {
		if !users[user] {
			return fmt.Errorf("inventory: %s is not a declared user", user)
		}
		for item, qty := range items {
			if qty <= 0 {
				return fmt.Errorf("inventory[%s][%s]: quantity must be positive", user, item)
			}
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	need, ok := stepFields[step.Op]
	if !ok {
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	switch {
	case need.user && step.User == "":
		return fmt.Errorf("steps[%d]: user is required for %s", index, step.Op)
	case need.module && step.Module == "":
		return fmt.Errorf("steps[%d]: module is required for %s", index, step.Op)
	case need.item && step.Item == "":
		return fmt.Errorf("steps[%d]: item is required for %s", index, step.Op)
	case need.qty && step.Qty <= 0:
		return fmt.Errorf("steps[%d]: qty must be positive for %s", index, step.Op)
	case need.duration:
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d]: duration must not be negative", index)
		}
	}
	if step.As != "" && step.Op != OpPlace {
		return fmt.Errorf("steps[%d]: as is only valid on place", index)
	}
	if step.Expect != nil && step.Expect.Error != "" && step.Expect.Result != nil {
		return fmt.Errorf("steps[%d].expect: error and result are exclusive", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertInventory:
		if a.User == "" || a.Item == "" || a.Qty == nil {
			return fmt.Errorf("assertions[%d]: user, item and qty are required for inventory", index)
		}
	case AssertVotes:
		if a.User == "" || a.Qty == nil {
			return fmt.Errorf("assertions[%d]: user and qty are required for votes", index)
		}
	case AssertModule:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for module", index)
		}
		if !a.Absent && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect or absent is required for module", index)
		}
	case AssertMessages:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for messages", index)
		}
	case AssertInteractions:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for interactions", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
