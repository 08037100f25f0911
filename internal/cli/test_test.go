package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: fountain_click
description: a guest click on a fountain pays a coin
catalog: |
  module: fountain: guest_yield: [{item: "coin", qty: 1, probability: 100}]
rand:
  floats: [0.0]
users: [{id: alice}, {id: bob}]
inventory:
  alice: {fountain: 1}
steps:
  - {op: place, user: alice, item: fountain, as: f}
  - {op: click, module: f, user: bob}
assertions:
  - {type: inventory, user: bob, item: coin, qty: 1}
`

const failingScenario = `
name: wrong_votes
description: asserts the wrong allowance
catalog: "module: rock: {}"
users: [{id: bob}]
steps:
  - {op: refresh}
assertions:
  - {type: votes, user: bob, qty: 3}
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
	}
	return dir
}

func runTestCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"test"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommand_Pass(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"fountain.yaml": passingScenario})

	out, err := runTestCommand(t, dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "\u2713 fountain_click")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yml":  failingScenario,
	})

	out, err := runTestCommand(t, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "\u2717 wrong_votes")
	assert.Contains(t, out, "bob has 3 votes")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommand_JSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yaml": failingScenario,
	})

	out, err := runTestCommand(t, "--format", "json", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, "fountain_click", resp.Data.Scenarios[0].Name)
	assert.False(t, resp.Data.Scenarios[1].Pass)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"fountain.yaml": passingScenario,
		"votes.yaml":    failingScenario,
	})

	out, err := runTestCommand(t, "--filter", "fount*", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	_, err = runTestCommand(t, "--filter", "[", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_Golden(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"fountain.yaml": passingScenario})
	golden := filepath.Join(dir, "golden", "fountain.golden")

	out, err := runTestCommand(t, "--update", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "(golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"fountain_click"`)

	out, err = runTestCommand(t, dir)
	require.NoError(t, err, out)

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"fountain_click","trace":[]}`), 0644))
	out, err = runTestCommand(t, dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_Errors(t *testing.T) {
	_, err := runTestCommand(t, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")

	out, err := runTestCommand(t, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	dir := writeScenarios(t, map[string]string{"broken.yaml": "name: [unterminated"})
	out, err = runTestCommand(t, dir)
	require.Error(t, err)
	assert.Contains(t, out, "\u2717 broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
