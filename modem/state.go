package modem

// ConnectState is the application-visible state of the IP connection.
// States below Intermediate are idle: a new Connect is accepted.
type ConnectState int

const (
	// NotConnected is the initial state, and the state after a clean
	// disconnect.
	NotConnected ConnectState = iota
	// GeneralError means the last attempt failed after exhausting retries.
	GeneralError
	// DNSError means the modem returned a malformed resolution reply.
	DNSError
	// Intermediate separates idle states from busy ones.
	Intermediate
	// Connecting covers the whole setup sequence up to the open reply.
	Connecting
	// Connected means the socket is established.
	Connected
	// Disconnecting covers close and IP stack shutdown.
	Disconnecting
)

// String returns a human-readable string representation of the state.
func (s ConnectState) String() string {
	switch s {
	case NotConnected:
		return "NotConnected"
	case GeneralError:
		return "GeneralError"
	case DNSError:
		return "DNSError"
	case Intermediate:
		return "Intermediate"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Disconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}

// MarshalText lets the state appear by name in JSON status documents.
func (s ConnectState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
