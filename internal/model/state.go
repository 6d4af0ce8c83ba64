package model

import "fmt"

// RunState is the state of the collection loop for one run.
//
// Design decision: We use iota-based constants rather than string constants
// so states can be switched on cheaply. The String() method provides the
// human-readable form stored in the history database and reports.
type RunState int

const (
	// StateSearching means the search form is being filled and submitted.
	StateSearching RunState = iota

	// StatePaging means result pages are being parsed and advanced.
	StatePaging

	// StateDone means the loop finished normally: the page limit was reached
	// or no next page was available.
	StateDone

	// StateAborted means the search could not be submitted or its results
	// never appeared. No page was parsed.
	StateAborted

	// StateInterrupted means the run was cancelled while paging. The records
	// collected until then are kept, but the result set is incomplete.
	StateInterrupted
)

// String returns a human-readable representation of the state.
func (s RunState) String() string {
	switch s {
	case StateSearching:
		return "SEARCHING"
	case StatePaging:
		return "PAGING"
	case StateDone:
		return "DONE"
	case StateAborted:
		return "ABORTED"
	case StateInterrupted:
		return "INTERRUPTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the loop exits in this state.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StateAborted || s == StateInterrupted
}

// ParseRunState converts the String() form back to a RunState.
func ParseRunState(s string) (RunState, error) {
	switch s {
	case "SEARCHING":
		return StateSearching, nil
	case "PAGING":
		return StatePaging, nil
	case "DONE":
		return StateDone, nil
	case "ABORTED":
		return StateAborted, nil
	case "INTERRUPTED":
		return StateInterrupted, nil
	default:
		return 0, fmt.Errorf("unknown run state %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler so states appear as names in JSON.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RunState) UnmarshalText(text []byte) error {
	parsed, err := ParseRunState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
