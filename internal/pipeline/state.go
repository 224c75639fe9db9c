package pipeline

// State is the lifecycle position of a single run
type State int

const (
	StateIdle State = iota
	StateConnected
	StateScanning
	StateDispatching
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateScanning:
		return "scanning"
	case StateDispatching:
		return "dispatching"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
