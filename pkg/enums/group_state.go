package enums

import "fmt"

// GroupState is derived from a bolão group's flags; it is never stored.
type GroupState string

const (
	GroupStateOpen       GroupState = "open"
	GroupStateComplete   GroupState = "complete"
	GroupStateCardsReady GroupState = "cards_ready"
	GroupStateSent       GroupState = "sent"
)

var validGroupStates = []GroupState{
	GroupStateOpen,
	GroupStateComplete,
	GroupStateCardsReady,
	GroupStateSent,
}

func (g GroupState) IsValid() bool {
	for _, candidate := range validGroupStates {
		if candidate == g {
			return true
		}
	}
	return false
}

func ParseGroupState(value string) (GroupState, error) {
	for _, candidate := range validGroupStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid group state %q", value)
}
