package mcptest

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmer-error states. Callers match these with
// errors.Is instead of sniffing message text.
var (
	// ErrNotConnected is returned when an operation requires a connected
	// Session. Connect the session first.
	ErrNotConnected = errors.New("session is not connected")

	// ErrNotStarted is returned by TestServer.Client when the server has not
	// been started or has been stopped.
	ErrNotStarted = errors.New("test server is not started")

	// ErrSnapshotUpdated is returned by snapshot matches that wrote a new
	// baseline in update mode. It marks the check as intentionally not
	// evaluated, distinct from both pass and fail.
	ErrSnapshotUpdated = errors.New("snapshot updated, comparison skipped")
)

// ConnectionError wraps any failure during transport spawn, stream setup, or
// the protocol handshake. By the time it is returned, every partially
// acquired resource has been released.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to MCP server: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StartError wraps a TestServer start failure after symmetric cleanup.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("could not start MCP server: %v", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// TimeoutError wraps a readiness-probe failure or deadline expiry in
// TestServer.WaitForReady.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("server did not become ready: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ToolError is a server-reported tool failure. The server executed the call
// and answered with an error result; the message is whatever the server put
// in the result content.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Message)
}

// AssertionError signals a failed expectation from the assertion helpers or
// the snapshot store. It always carries enough context (available names,
// expected vs actual values) to diagnose without re-running.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string { return e.Message }

func assertionf(format string, args ...any) *AssertionError {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}
