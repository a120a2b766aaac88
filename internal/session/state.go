// Package session holds per-conversation execution state and the
// registry that tracks live sessions. A Context is private to one
// conversation; the Registry may be shared by any number of goroutines.
package session

import "fmt"

// State is the lifecycle phase of a dialogue session
type State int

const (
	// StateIdle means the session was created but not yet started
	StateIdle State = iota

	// StateRunning means the interpreter is executing statements
	StateRunning

	// StateWaitingInput means the session is suspended until the next
	// call to ProcessInput
	StateWaitingInput

	// StateFinished means the dialogue ran to completion. Terminal.
	StateFinished

	// StateError means the session failed at runtime. Terminal; the
	// caller must remove and recreate the session to continue.
	StateError
)

var stateNames = map[State]string{
	StateIdle:         "IDLE",
	StateRunning:      "RUNNING",
	StateWaitingInput: "WAITING_INPUT",
	StateFinished:     "FINISHED",
	StateError:        "ERROR",
}

// String returns the wire name of the state
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// MarshalJSON encodes the state as its wire name
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Terminal reports whether the session can make no further progress
func (s State) Terminal() bool {
	return s == StateFinished || s == StateError
}
