package agui

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeError reports a record that could not be turned into a well-formed
// Event. A DecodeError never terminates the stream: the caller drops the
// frame and keeps reading.
type DecodeError struct {
	Reason string
	Raw    string
	Err    error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode frame: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode frame: %s", e.Reason)
}

// Unwrap returns the underlying error, if any
func (e *DecodeError) Unwrap() error {
	return e.Err
}

const rawPreviewLimit = 200

// Decode parses one raw record payload into a typed Event. It validates that
// the tag-specific required fields are present. Presence is tested by value,
// so a content frame carrying an empty delta is rejected the same as one with
// no delta field at all; an empty delta carries nothing to append. Unknown
// type tags are decode failures, not hard errors, so a newer producer does
// not break an older consumer. Decode has no side effects.
func Decode(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, &DecodeError{Reason: "malformed JSON", Raw: preview(raw), Err: err}
	}

	// Producer alias for the protocol's TOOL_RESULT tag
	if ev.Type == eventTypeToolCallResult {
		ev.Type = EventToolResult
	}

	if err := validate(ev); err != nil {
		return Event{}, &DecodeError{Reason: err.Error(), Raw: preview(raw)}
	}
	return ev, nil
}

// validate checks the per-type required fields from the protocol table
func validate(ev Event) error {
	switch ev.Type {
	case EventRunStarted, EventRunFinished:
		if ev.RunID == "" {
			return fmt.Errorf("%s missing runId", ev.Type)
		}
	case EventRunError:
		// message and code are informational; nothing is required

	case EventThinkingStart, EventThinkingEnd:
		if ev.MessageID == "" {
			return fmt.Errorf("%s missing messageId", ev.Type)
		}
	case EventThinkingContent:
		if ev.MessageID == "" {
			return fmt.Errorf("%s missing messageId", ev.Type)
		}
		if ev.Delta == "" {
			return fmt.Errorf("%s missing delta", ev.Type)
		}

	case EventTextMessageStart, EventTextMessageEnd:
		if ev.MessageID == "" {
			return fmt.Errorf("%s missing messageId", ev.Type)
		}
	case EventTextMessageContent:
		if ev.MessageID == "" {
			return fmt.Errorf("%s missing messageId", ev.Type)
		}
		if ev.Delta == "" {
			return fmt.Errorf("%s missing delta", ev.Type)
		}

	case EventToolCallStart:
		if ev.ToolCallID == "" {
			return fmt.Errorf("%s missing toolCallId", ev.Type)
		}
		if ev.ParentMessageID == "" {
			return fmt.Errorf("%s missing parentMessageId", ev.Type)
		}
		if ev.ToolCallName == "" {
			return fmt.Errorf("%s missing toolCallName", ev.Type)
		}
	case EventToolCallArgs:
		if ev.ToolCallID == "" {
			return fmt.Errorf("%s missing toolCallId", ev.Type)
		}
	case EventToolCallEnd:
		if ev.ToolCallID == "" {
			return fmt.Errorf("%s missing toolCallId", ev.Type)
		}
	case EventToolResult:
		if ev.ToolCallID == "" {
			return fmt.Errorf("%s missing toolCallId", ev.Type)
		}

	case EventCustom:
		if ev.MessageID == "" {
			return fmt.Errorf("%s missing messageId", ev.Type)
		}
		if ev.Name == "" {
			return fmt.Errorf("%s missing name", ev.Type)
		}

	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

// preview truncates a raw frame for diagnostics
func preview(raw []byte) string {
	s := string(raw)
	if len(s) > rawPreviewLimit {
		return s[:rawPreviewLimit] + "..."
	}
	return s
}

// StripDataPrefix extracts the JSON payload from a line-oriented SSE record
// of the form "data: {...}". It returns false for comments, blank keep-alive
// lines, and any other framing the transport may emit.
func StripDataPrefix(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" || payload == "[DONE]" {
		return "", false
	}
	return payload, true
}
