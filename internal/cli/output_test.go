package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridyield/internal/engine"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeCatalog, "catalog failed to compile", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCatalog, resp.Error.Code)
	assert.Equal(t, "catalog failed to compile", resp.Error.Message)
}

func TestOutputFormatter_Emit(t *testing.T) {
	text := func(w io.Writer) { fmt.Fprintln(w, "plain") }

	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, f.Emit(map[string]int{"n": 1}, text))
	assert.Equal(t, "plain\n", buf.String())

	buf.Reset()
	f.Format = "json"
	require.NoError(t, f.Emit(map[string]int{"n": 1}, text))
	assert.JSONEq(t, `{"status":"ok","data":{"n":1}}`, buf.String())
}

func TestOutputFormatter_FailEngineError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	cause := &engine.Error{Code: engine.CodeNotClickable, Message: "module is needs_setup", ModuleID: "m-1", UserID: "bob"}
	err := f.Fail(fmt.Errorf("click: %w", cause))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, errors.Is(err, engine.ErrNotClickable))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "NOT_CLICKABLE", resp.Error.Code)
	assert.Equal(t, map[string]interface{}{"module_id": "m-1", "user_id": "bob"}, resp.Error.Details)
}

func TestOutputFormatter_FailOtherErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	err := f.Fail(errors.New("disk on fire"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Empty(t, buf.String(), "text mode leaves printing to main")

	exitErr := NewExitError(ExitCommandError, "bad flag")
	assert.Same(t, exitErr, f.Fail(exitErr))
}

func TestOutputFormatter_FailReported(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	err := f.Fail(reportedFailure("2 scenario(s) failed"))
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Empty(t, buf.String())
}

func TestExitError(t *testing.T) {
	wrapped := WrapExitError(ExitCommandError, "failed to open database", errors.New("locked"))
	assert.Equal(t, "failed to open database: locked", wrapped.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", wrapped)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestVerboseLog(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag}

	f.VerboseLog("hidden %d", 1)
	assert.Empty(t, diag.String())

	f.Verbose = true
	f.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", diag.String())
	assert.Empty(t, out.String())
}
