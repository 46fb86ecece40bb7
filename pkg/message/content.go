package message

import "errors"

// PartKind discriminates the variants of a ContentPart
type PartKind int

const (
	PartText PartKind = iota
	PartComponent
	PartToolCallRef
)

// String returns the string representation of the part kind
func (k PartKind) String() string {
	switch k {
	case PartText:
		return "text"
	case PartComponent:
		return "component"
	case PartToolCallRef:
		return "tool_call_ref"
	default:
		return "unknown"
	}
}

var (
	// ErrPartClosed is returned when appending to a text part that is no
	// longer appendable
	ErrPartClosed = errors.New("content part is closed")

	// ErrNotTextPart is returned when appending text to a non-text part
	ErrNotTextPart = errors.New("content part is not textual")
)

// ContentPart is one addressable segment of a message's visible content:
// a text span, an inline component payload, or a tool-call placeholder.
// Segment indices are assigned at creation, strictly increase within a
// message, and are never reused; they interleave text spans around tool-call
// placeholders and component payloads in arrival order. A part's kind never
// changes after creation.
type ContentPart struct {
	Kind    PartKind `json:"kind"`
	Segment int      `json:"segment"`

	// PartText
	Text string `json:"text,omitempty"`
	Open bool   `json:"open,omitempty"`

	// PartComponent
	Name  string         `json:"name,omitempty"`
	Props map[string]any `json:"props,omitempty"`

	// PartToolCallRef
	ToolCallID string `json:"toolCallId,omitempty"`
}

// AppendText appends a delta to an open text part
func (p *ContentPart) AppendText(delta string) error {
	if p.Kind != PartText {
		return ErrNotTextPart
	}
	if !p.Open {
		return ErrPartClosed
	}
	p.Text += delta
	return nil
}

// Close marks a text part no longer appendable. Closing a closed or
// non-text part is a no-op.
func (p *ContentPart) Close() {
	if p.Kind == PartText {
		p.Open = false
	}
}

// clone returns a deep copy of the part. Component props are copied one
// level deep; prop values are treated as read-only by consumers.
func (p *ContentPart) clone() *ContentPart {
	cp := *p
	if p.Props != nil {
		cp.Props = make(map[string]any, len(p.Props))
		for k, v := range p.Props {
			cp.Props[k] = v
		}
	}
	return &cp
}
