package models

// ConnectionState reflects the lifecycle of the current connection.
type ConnectionState string

const (
	StateIdle       ConnectionState = "idle"
	StateConnecting ConnectionState = "connecting"
	StateConnected  ConnectionState = "connected"
	StateError      ConnectionState = "error"
	StateClosed     ConnectionState = "closed"
)

// CanSend reports whether user input should be enabled in this state.
func (s ConnectionState) CanSend() bool {
	return s == StateConnected
}
