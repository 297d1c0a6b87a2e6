package epoch

// PeerValidatorStatus classifies a peer by comparing the current validator set
// with the locked next one.
type PeerValidatorStatus uint8

const (
	//UnknownStatus means there is not enough information to classify the peer
	UnknownStatus PeerValidatorStatus = iota
	//Entering peers are absent now and present in the next set
	Entering
	//Exiting peers are present now and absent from the next set
	Exiting
	//Survivor peers are present in both sets
	Survivor
)

var statuses = []string{"Unknown", "Entering", "Exiting", "Survivor"}

// String returns the string representation of PeerValidatorStatus
func (s PeerValidatorStatus) String() string {
	if int(s) >= len(statuses) {
		return statuses[UnknownStatus]
	}
	return statuses[s]
}

// StatusOf classifies a peer from its membership of the current and the next
// set.
func StatusOf(inCurrent, inNext bool) PeerValidatorStatus {
	switch {
	case inCurrent && inNext:
		return Survivor
	case inCurrent:
		return Exiting
	case inNext:
		return Entering
	}
	return UnknownStatus
}
