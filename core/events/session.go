package events

const (
	// KindSessionConnected identifies a completed transport handshake.
	KindSessionConnected Kind = "session.connected"
	// KindSessionReady identifies a fully initialized session.
	KindSessionReady Kind = "session.ready"
	// KindSessionDisconnected identifies an observed transport closure.
	KindSessionDisconnected Kind = "session.disconnected"
	// KindSessionError identifies a surfaced, non-fatal session error.
	KindSessionError Kind = "session.error"
)

// SessionConnected marks the transport handshake completing.
type SessionConnected struct{ Base }

// NewSessionConnected creates a session connected event.
func NewSessionConnected() SessionConnected {
	return SessionConnected{Base: NewBase(KindSessionConnected)}
}

// SessionReady marks the session reaching the fully initialized state.
type SessionReady struct{ Base }

// NewSessionReady creates a session ready event.
func NewSessionReady() SessionReady {
	return SessionReady{Base: NewBase(KindSessionReady)}
}

// SessionDisconnected carries the close code and reason of an unexpected
// transport closure. Requested disconnects do not emit it.
type SessionDisconnected struct {
	Base
	Code   int
	Reason string
}

// NewSessionDisconnected creates a session disconnected event.
func NewSessionDisconnected(code int, reason string) SessionDisconnected {
	return SessionDisconnected{Base: NewBase(KindSessionDisconnected), Code: code, Reason: reason}
}

// SessionError surfaces a classified error to collaborators. Presentation is
// entirely the collaborator's concern.
type SessionError struct {
	Base
	ErrorType string
	Details   string
}

// NewSessionError creates a session error event.
func NewSessionError(errorType, details string) SessionError {
	return SessionError{Base: NewBase(KindSessionError), ErrorType: errorType, Details: details}
}
