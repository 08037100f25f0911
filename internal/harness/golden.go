package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gridyield/internal/ir"
)

// GoldenDir holds golden trace files, relative to the test's package.
const GoldenDir = "testdata/golden"

// TraceSnapshot captures the trace of one scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// MarshalCanonical renders the snapshot as canonical JSON, one byte-stable
// encoding per trace.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	events := make(ir.Array, len(s.Trace))
	for i, ev := range s.Trace {
		obj := ir.Object{
			"step":    ir.Int(ev.Step),
			"op":      ir.String(ev.Op),
			"args":    ev.Args,
			"outcome": ir.String(ev.Outcome),
		}
		if ev.Args == nil {
			obj["args"] = ir.Object{}
		}
		if ev.Result != nil {
			obj["result"] = ev.Result
		}
		events[i] = obj
	}
	return ir.MarshalCanonical(ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"trace":         events,
	})
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Returns an error if the
// scenario could not run; a trace mismatch fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{ScenarioName: scenarioName, Trace: result.Trace}
	traceJSON, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
