package message

import (
	"errors"
	"time"
)

// ErrSettled is returned when mutating a message whose status is terminal
var ErrSettled = errors.New("message is settled")

// Message is the assembled result of one run: an ordered sequence of content
// parts, a set of tool calls addressable by id, and an optional private
// thinking text, all owned exclusively by the message. A message is mutated
// only by the assembler and becomes immutable once its status is terminal.
type Message struct {
	ID        string         `json:"id"`
	Role      string         `json:"role,omitempty"`
	Status    Status         `json:"status"`
	Thinking  string         `json:"thinking,omitempty"`
	Parts     []*ContentPart `json:"parts"`
	ToolCalls []*ToolCall    `json:"toolCalls"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`

	toolIndex   map[string]*ToolCall
	nextSegment int
}

// New creates a draft message
func New(id string) *Message {
	now := time.Now()
	return &Message{
		ID:        id,
		Status:    StatusDraft,
		Parts:     make([]*ContentPart, 0),
		ToolCalls: make([]*ToolCall, 0),
		CreatedAt: now,
		UpdatedAt: now,
		toolIndex: make(map[string]*ToolCall),
	}
}

// SetStatus moves the message through its declared state machine. Undeclared
// transitions are rejected; terminal states have no outgoing transitions.
func (m *Message) SetStatus(to Status) error {
	if m.Status == to {
		return nil
	}
	if !canTransition(m.Status, to) {
		return &TransitionError{From: m.Status, To: to}
	}
	m.Status = to
	m.UpdatedAt = time.Now()
	return nil
}

// Settled reports whether the message reached a terminal status
func (m *Message) Settled() bool {
	return m.Status.IsTerminal()
}

// AppendThinking appends a fragment to the private reasoning channel.
// Thinking text is disjoint from visible content.
func (m *Message) AppendThinking(delta string) error {
	if m.Settled() {
		return ErrSettled
	}
	m.Thinking += delta
	m.UpdatedAt = time.Now()
	return nil
}

// AddTextPart creates a new open text part at the next segment index
func (m *Message) AddTextPart() (*ContentPart, error) {
	if m.Settled() {
		return nil, ErrSettled
	}
	part := &ContentPart{Kind: PartText, Segment: m.takeSegment(), Open: true}
	m.Parts = append(m.Parts, part)
	return part, nil
}

// AddComponentPart creates a component part at the next segment index.
// Component payloads are atomic: they have no delta phase.
func (m *Message) AddComponentPart(name string, props map[string]any) (*ContentPart, error) {
	if m.Settled() {
		return nil, ErrSettled
	}
	part := &ContentPart{Kind: PartComponent, Segment: m.takeSegment(), Name: name, Props: props}
	m.Parts = append(m.Parts, part)
	return part, nil
}

// AddToolRefPart creates a tool-call placeholder at the next segment index,
// which is what makes tool invocations render inline with surrounding text
func (m *Message) AddToolRefPart(toolCallID string) (*ContentPart, error) {
	if m.Settled() {
		return nil, ErrSettled
	}
	part := &ContentPart{Kind: PartToolCallRef, Segment: m.takeSegment(), ToolCallID: toolCallID}
	m.Parts = append(m.Parts, part)
	return part, nil
}

// AddToolCall registers a new executing tool call. Tool call ids are unique
// within the run; re-registering an id returns the existing call.
func (m *Message) AddToolCall(id, name string) (*ToolCall, error) {
	if m.Settled() {
		return nil, ErrSettled
	}
	if tc, ok := m.toolIndex[id]; ok {
		return tc, nil
	}
	tc := &ToolCall{ID: id, Name: name, Status: ToolExecuting}
	m.ToolCalls = append(m.ToolCalls, tc)
	m.toolIndex[id] = tc
	m.UpdatedAt = time.Now()
	return tc, nil
}

// ToolCall looks up a tool call by id
func (m *Message) ToolCall(id string) (*ToolCall, bool) {
	tc, ok := m.toolIndex[id]
	return tc, ok
}

// LastPart returns the most recently created content part
func (m *Message) LastPart() (*ContentPart, bool) {
	if len(m.Parts) == 0 {
		return nil, false
	}
	return m.Parts[len(m.Parts)-1], true
}

// Text concatenates all text parts in segment order
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Kind == PartText {
			out += p.Text
		}
	}
	return out
}

// Touch bumps the modification timestamp
func (m *Message) Touch() {
	m.UpdatedAt = time.Now()
}

// Clone returns a deep-copy snapshot safe to hand to a renderer while the
// original continues to mutate
func (m *Message) Clone() *Message {
	cp := &Message{
		ID:          m.ID,
		Role:        m.Role,
		Status:      m.Status,
		Thinking:    m.Thinking,
		Error:       m.Error,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Parts:       make([]*ContentPart, 0, len(m.Parts)),
		ToolCalls:   make([]*ToolCall, 0, len(m.ToolCalls)),
		toolIndex:   make(map[string]*ToolCall, len(m.ToolCalls)),
		nextSegment: m.nextSegment,
	}
	for _, p := range m.Parts {
		cp.Parts = append(cp.Parts, p.clone())
	}
	for _, tc := range m.ToolCalls {
		c := tc.clone()
		cp.ToolCalls = append(cp.ToolCalls, c)
		cp.toolIndex[c.ID] = c
	}
	return cp
}

func (m *Message) takeSegment() int {
	seg := m.nextSegment
	m.nextSegment++
	m.UpdatedAt = time.Now()
	return seg
}
