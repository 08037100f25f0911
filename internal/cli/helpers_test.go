package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Every probability is 0 or 100 so command tests do not depend on the seed.
const testCatalog = `
module: {
	stand: {
		name: "Lemonade Stand"
		yield: {item: "lemon", per_day: 24, max: 100}
		setup: [{item: "sugar", qty: 1}]
		guest_yield: [{item: "coin", qty: 2, probability: 100}]
	}
	fountain: {
		guest_yield: [{item: "coin", qty: 1, probability: 100}]
	}
	post: {
		editor: "TRADE"
		yield: {item: "gold", per_day: 1, max: 1}
	}
	arcade: {
		editor: "HOP_ARCADE"
		arcade_prize: [{item: "ticket", qty: 1, success_rate: 100}]
	}
}
`

type testEnv struct {
	dir     string
	db      string
	catalog string
	config  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	catDir := filepath.Join(dir, "catalog")
	require.NoError(t, os.MkdirAll(catDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(catDir, "modules.cue"), []byte(testCatalog), 0644))
	return &testEnv{
		dir:     dir,
		db:      filepath.Join(dir, "test.db"),
		catalog: catDir,
	}
}

// withConfig writes a config file that later commands read.
func (e *testEnv) withConfig(t *testing.T, yaml string) {
	t.Helper()
	e.config = filepath.Join(e.dir, "gridyield.yaml")
	require.NoError(t, os.WriteFile(e.config, []byte(yaml), 0644))
}

// exec runs the root command with the env's database and catalog.
func (e *testEnv) exec(args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	base := []string{"--db", e.db, "--catalog", e.catalog}
	if e.config != "" {
		base = append(base, "--config", e.config)
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return buf.String(), err
}

// mustExec runs a command that has to succeed.
func (e *testEnv) mustExec(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.exec(args...)
	require.NoError(t, err, out)
	return out
}

// jsonResponse runs a command with --format json and decodes the response.
func (e *testEnv) jsonResponse(t *testing.T, args ...string) (jsonResponse, error) {
	t.Helper()
	out, err := e.exec(append([]string{"--format", "json"}, args...)...)
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp, err
}

// data runs a JSON command that has to succeed and returns its payload.
func (e *testEnv) data(t *testing.T, args ...string) map[string]any {
	t.Helper()
	resp, err := e.jsonResponse(t, args...)
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Status)
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

// list is data for commands whose payload is an array.
func (e *testEnv) list(t *testing.T, args ...string) []map[string]any {
	t.Helper()
	resp, err := e.jsonResponse(t, args...)
	require.NoError(t, err)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// placeStand gives alice a stand and sugar, places it and returns its id.
func (e *testEnv) placeStand(t *testing.T) string {
	t.Helper()
	e.mustExec(t, "user", "add", "alice")
	e.mustExec(t, "user", "add", "bob")
	e.mustExec(t, "give", "alice", "stand")
	e.mustExec(t, "give", "alice", "sugar", "--qty", "2")
	m := e.data(t, "place", "alice", "stand", "--x", "0", "--y", "0")
	return m["id"].(string)
}
