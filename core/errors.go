package session

import "fmt"

// ErrorType tags a failure with the layer it originated in.
type ErrorType string

const (
	// ErrorTypeConfiguration covers invalid or missing configuration caught
	// before any socket opens.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeTransport covers socket-level failures on the primary
	// transport.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeProtocol covers malformed or unparseable inbound frames.
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeCapture covers device acquisition and media capture failures.
	ErrorTypeCapture ErrorType = "capture"
	// ErrorTypeToolExecution covers failures inside dispatched tool
	// invocations.
	ErrorTypeToolExecution ErrorType = "tool_execution"
)

// Error is the session error surface: every failure crossing the
// orchestrator boundary carries its origin layer and the operation that
// observed it.
type Error struct {
	Type ErrorType
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(errorType ErrorType, op string, err error) *Error {
	return &Error{Type: errorType, Op: op, Err: err}
}
