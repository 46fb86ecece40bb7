package assembler

import "fmt"

// ProtocolViolationError reports a structural impossibility in the stream:
// a second concurrent run, a close for a run that was never opened, or a
// message event arriving outside any run. It is fatal to the affected
// message only; the assembler itself keeps consuming frames.
type ProtocolViolationError struct {
	Reason    string
	RunID     string
	MessageID string
}

// Error implements the error interface
func (e *ProtocolViolationError) Error() string {
	switch {
	case e.MessageID != "":
		return fmt.Sprintf("protocol violation (message %s): %s", e.MessageID, e.Reason)
	case e.RunID != "":
		return fmt.Sprintf("protocol violation (run %s): %s", e.RunID, e.Reason)
	default:
		return fmt.Sprintf("protocol violation: %s", e.Reason)
	}
}
