package realtime

// ConnectionState is the lifecycle state of the realtime connection.
type ConnectionState int

const (
	// StateDisconnected means no connection exists and none is pending.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a dial is in flight.
	StateConnecting

	// StateConnected means the transport is open.
	StateConnected

	// StateReconnecting means a backoff timer is pending before the next dial.
	StateReconnecting
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
