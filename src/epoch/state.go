package epoch

import (
	"fmt"
	"strings"
)

// NetworkEpochState labels the lifecycle phase of the network. The registry
// drives the transitions; this type only names them. The usual cycle is
// Active, NextValidatorSetLocked, ReadyForNextEpoch, Unlocked and back to
// Active, with Paused and Restore entered and left from that cycle.
type NetworkEpochState uint8

const (
	//Active is the normal operating state
	Active NetworkEpochState = iota
	//NextValidatorSetLocked means the next roster is frozen
	NextValidatorSetLocked
	//ReadyForNextEpoch means the locked roster is ready to take over
	ReadyForNextEpoch
	//Unlocked means the next roster may change again
	Unlocked
	//Paused is an administrative halt
	Paused
	//Restore is recovery from a backup
	Restore
	//Unknown is any code this version does not recognise
	Unknown NetworkEpochState = 255
)

// FromCode maps a registry state code to a NetworkEpochState. The mapping is
// total: unrecognised codes give Unknown so that newer registries do not break
// older nodes.
func FromCode(code uint8) NetworkEpochState {
	if code <= uint8(Restore) {
		return NetworkEpochState(code)
	}
	return Unknown
}

// Code returns the registry code of the state, 255 for Unknown.
func (s NetworkEpochState) Code() uint8 {
	return uint8(s)
}

// NextSetLocked reports whether the next validator set is frozen in this
// state, which is when comparing it with the current set is meaningful.
func (s NetworkEpochState) NextSetLocked() bool {
	return s == NextValidatorSetLocked || s == ReadyForNextEpoch
}

// String ...
func (s NetworkEpochState) String() string {
	switch s {
	case Active:
		return "Active"
	case NextValidatorSetLocked:
		return "NextValidatorSetLocked"
	case ReadyForNextEpoch:
		return "ReadyForNextEpoch"
	case Unlocked:
		return "Unlocked"
	case Paused:
		return "Paused"
	case Restore:
		return "Restore"
	default:
		return "Unknown"
	}
}

// ParseNetworkEpochState is the inverse of String. It is case-insensitive.
func ParseNetworkEpochState(name string) (NetworkEpochState, error) {
	for code := uint8(Active); code <= uint8(Restore); code++ {
		s := NetworkEpochState(code)
		if strings.EqualFold(s.String(), name) {
			return s, nil
		}
	}
	if strings.EqualFold(name, Unknown.String()) {
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown network epoch state %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s NetworkEpochState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *NetworkEpochState) UnmarshalText(text []byte) error {
	parsed, err := ParseNetworkEpochState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
