package message

import "fmt"

// Status is the top-level lifecycle state of a message
type Status int

const (
	StatusDraft Status = iota
	StatusThinking
	StatusStreaming
	StatusSettledSuccess
	StatusSettledEnded
	StatusSettledError
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusThinking:
		return "thinking"
	case StatusStreaming:
		return "streaming"
	case StatusSettledSuccess:
		return "settled-success"
	case StatusSettledEnded:
		return "settled-ended"
	case StatusSettledError:
		return "settled-error"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status is absorbing. A settled message
// accepts no further mutation.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSettledSuccess, StatusSettledEnded, StatusSettledError:
		return true
	}
	return false
}

// statusTransitions declares every legal status change. Terminal states have
// no outgoing edges.
var statusTransitions = map[Status][]Status{
	StatusDraft:     {StatusThinking, StatusStreaming, StatusSettledSuccess, StatusSettledEnded, StatusSettledError},
	StatusThinking:  {StatusStreaming, StatusSettledSuccess, StatusSettledEnded, StatusSettledError},
	StatusStreaming: {StatusSettledSuccess, StatusSettledEnded, StatusSettledError},
}

func canTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError reports an attempt to move a message through an
// undeclared status transition
type TransitionError struct {
	From Status
	To   Status
}

// Error implements the error interface
func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}
