package message

import "fmt"

// ToolStatus is the lifecycle state of one tool invocation
type ToolStatus int

const (
	ToolExecuting ToolStatus = iota
	ToolCompleted
	ToolFailed
)

// String returns the string representation of the tool status
func (s ToolStatus) String() string {
	switch s {
	case ToolExecuting:
		return "executing"
	case ToolCompleted:
		return "completed"
	case ToolFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ToolCall tracks one tool invocation within a message. Arguments accumulate
// as raw text only while the call is executing; the terminal transition
// happens exactly once; a result attaches at most once, at or after
// completion.
type ToolCall struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Args      string     `json:"args"`
	Status    ToolStatus `json:"status"`
	Result    any        `json:"result,omitempty"`
	HasResult bool       `json:"hasResult"`
}

// AppendArgs appends a raw argument fragment. Fragments arriving after the
// call has settled carry no useful signal and are rejected.
func (t *ToolCall) AppendArgs(delta string) error {
	if t.Status != ToolExecuting {
		return fmt.Errorf("tool call %s is %s, args rejected", t.ID, t.Status)
	}
	t.Args += delta
	return nil
}

// Complete transitions executing -> completed
func (t *ToolCall) Complete() error {
	if t.Status != ToolExecuting {
		return fmt.Errorf("tool call %s already %s", t.ID, t.Status)
	}
	t.Status = ToolCompleted
	return nil
}

// Fail transitions executing -> failed
func (t *ToolCall) Fail() error {
	if t.Status != ToolExecuting {
		return fmt.Errorf("tool call %s already %s", t.ID, t.Status)
	}
	t.Status = ToolFailed
	return nil
}

// AttachResult attaches the tool outcome. It applies exactly once; duplicate
// results are rejected so redelivered frames cannot clobber the first
// observed outcome.
func (t *ToolCall) AttachResult(result any) error {
	if t.HasResult {
		return fmt.Errorf("tool call %s already has a result", t.ID)
	}
	t.Result = result
	t.HasResult = true
	return nil
}

// clone returns a copy of the tool call. The result payload is shared: it is
// opaque, attached once, and treated as read-only.
func (t *ToolCall) clone() *ToolCall {
	cp := *t
	return &cp
}
