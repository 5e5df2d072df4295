package session

// State is the orchestrator's session state. The orchestrator is the only
// component that mutates it.
type State string

const (
	StateDisconnected  State = "disconnected"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateDisconnecting State = "disconnecting"
	StateFailed        State = "failed"
)

func (s State) String() string { return string(s) }
