package agui

// EventType identifies the kind of a decoded stream event
type EventType string

const (
	// Run lifecycle events bracket one request/response exchange
	EventRunStarted  EventType = "RUN_STARTED"
	EventRunFinished EventType = "RUN_FINISHED"
	EventRunError    EventType = "RUN_ERROR"

	// Thinking events carry the private reasoning channel
	EventThinkingStart   EventType = "THINKING_START"
	EventThinkingContent EventType = "THINKING_CONTENT"
	EventThinkingEnd     EventType = "THINKING_END"

	// Text message events carry visible assistant content
	EventTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd     EventType = "TEXT_MESSAGE_END"

	// Tool call events track tool invocations and their results
	EventToolCallStart EventType = "TOOL_CALL_START"
	EventToolCallArgs  EventType = "TOOL_CALL_ARGS"
	EventToolCallEnd   EventType = "TOOL_CALL_END"
	EventToolResult    EventType = "TOOL_RESULT"

	// Custom events carry out-of-band payloads such as render_component
	EventCustom EventType = "CUSTOM"
)

// eventTypeToolCallResult is the tag some producers use instead of
// TOOL_RESULT. The decoder normalizes it to EventToolResult.
const eventTypeToolCallResult EventType = "TOOL_CALL_RESULT"

// CustomRenderComponent is the custom event name used for inline UI payloads
const CustomRenderComponent = "render_component"

// Event is one decoded record from the event stream. It is a flat tagged
// union: Type determines which of the optional fields are meaningful.
// Events are immutable once decoded.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`

	// Run events
	ThreadID string `json:"threadId,omitempty"`
	RunID    string `json:"runId,omitempty"`

	// Message-scoped events
	MessageID string `json:"messageId,omitempty"`
	Role      string `json:"role,omitempty"`
	Delta     string `json:"delta,omitempty"`

	// Tool call events
	ToolCallID      string `json:"toolCallId,omitempty"`
	ToolCallName    string `json:"toolCallName,omitempty"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
	Result          any    `json:"result,omitempty"`
	Content         string `json:"content,omitempty"`

	// Custom events
	Name  string         `json:"name,omitempty"`
	Value map[string]any `json:"value,omitempty"`

	// Run error events
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// IsRunEvent reports whether the event is a run lifecycle marker
func (e Event) IsRunEvent() bool {
	switch e.Type {
	case EventRunStarted, EventRunFinished, EventRunError:
		return true
	}
	return false
}

// ResultPayload returns the tool result carried by a TOOL_RESULT event.
// The protocol table names the field "result" but the producer serializes
// the tool output as a string "content" field; whichever is present wins.
func (e Event) ResultPayload() any {
	if e.Result != nil {
		return e.Result
	}
	if e.Content != "" {
		return e.Content
	}
	return nil
}
