package enums

import "fmt"

// EditionStatus tracks the lifecycle of a draw cycle.
type EditionStatus string

const (
	EditionStatusDraft     EditionStatus = "draft"
	EditionStatusActive    EditionStatus = "active"
	EditionStatusFinalized EditionStatus = "finalized"
)

var validEditionStatuses = []EditionStatus{
	EditionStatusDraft,
	EditionStatusActive,
	EditionStatusFinalized,
}

// String implements fmt.Stringer.
func (s EditionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EditionStatus.
func (s EditionStatus) IsValid() bool {
	for _, candidate := range validEditionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo allows only draft -> active -> finalized.
func (s EditionStatus) CanTransitionTo(next EditionStatus) bool {
	switch s {
	case EditionStatusDraft:
		return next == EditionStatusActive
	case EditionStatusActive:
		return next == EditionStatusFinalized
	}
	return false
}

// ParseEditionStatus converts raw input into an EditionStatus.
func ParseEditionStatus(value string) (EditionStatus, error) {
	for _, candidate := range validEditionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid edition status %q", value)
}
