package plugin

import "fmt"

// State is the lifecycle state of a plugin id inside a registry.
type State int

const (
	StateUnregistered State = iota
	StateRegistered
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistered:
		return "registered"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	if s < StateUnregistered || s > StateActive {
		return nil, fmt.Errorf("unknown plugin state %d", int(s))
	}
	return []byte(s.String()), nil
}
