package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/gridyield/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation refused by the engine, or scenarios failed
	ExitCommandError = 2 // Command error (bad config, missing catalog, database error)
)

// CLI error codes for failures that are not engine errors.
const (
	ErrCodeGeneric = "E_GENERIC"
	ErrCodeConfig  = "E_CONFIG"
	ErrCodeCatalog = "E_CATALOG"
	ErrCodeStore   = "E_STORE"
	ErrCodeArgs    = "E_ARGS"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the command already wrote its own error output.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// reportedFailure is an ExitFailure whose result is already on stdout.
func reportedFailure(message string) *ExitError {
	return &ExitError{Code: ExitFailure, Message: message, Reported: true}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // engine code ("NOT_CLICKABLE") or CLI code ("E_CONFIG")
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Emit writes data as a JSON response, or calls text in text mode.
func (f *OutputFormatter) Emit(data interface{}, text func(w io.Writer)) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	text(f.Writer)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail turns err into the ExitError the command should return. In JSON mode
// the error is also written as a response; text mode leaves printing to main.
// Engine refusals exit with ExitFailure and keep their code; anything else is
// a command error.
func (f *OutputFormatter) Fail(err error) error {
	code := string(engine.CodeOf(err))
	exit := ExitFailure
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		exit = exitErr.Code
		if code == "" {
			code = ErrCodeGeneric
		}
	case code == "":
		code, exit = ErrCodeGeneric, ExitCommandError
	}

	if f.Format == "json" && (exitErr == nil || !exitErr.Reported) {
		var details interface{}
		var engErr *engine.Error
		if errors.As(err, &engErr) && (engErr.ModuleID != "" || engErr.UserID != "") {
			details = map[string]string{"module_id": engErr.ModuleID, "user_id": engErr.UserID}
		}
		_ = f.Error(code, err.Error(), details)
	}
	if exitErr != nil {
		return exitErr
	}
	if exit == ExitFailure {
		return WrapExitError(exit, "refused", err)
	}
	return WrapExitError(exit, "failed", err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
