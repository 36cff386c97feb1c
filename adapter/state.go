package adapter

// State is the adapter's initialization state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateRemoteActive
	StateLocalOnly
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateRemoteActive:
		return "remote_active"
	case StateLocalOnly:
		return "local_only"
	}
	return "unknown"
}

// settled reports whether initialization has finished.
func (s State) settled() bool {
	return s == StateRemoteActive || s == StateLocalOnly
}
