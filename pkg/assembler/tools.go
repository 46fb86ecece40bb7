package assembler

import (
	"github.com/opspilot/agui/pkg/logger"
	"github.com/opspilot/agui/pkg/message"
)

// toolTracker tracks the open tool invocations of a run, keyed by tool call
// id. Several calls may be executing at once; their deltas are still
// serialized through the single event stream, so no locking happens here.
type toolTracker struct {
	// owner maps a tool call id to the message that holds the call. Result
	// and end frames carry only the tool call id, never the parent message.
	owner map[string]*message.Message

	// pending buffers a result that arrived before the end marker so both
	// apply atomically on end
	pending map[string]any
	hasPend map[string]bool

	log *logger.Logger
}

func newToolTracker(log *logger.Logger) *toolTracker {
	return &toolTracker{
		owner:   make(map[string]*message.Message),
		pending: make(map[string]any),
		hasPend: make(map[string]bool),
		log:     log,
	}
}

// start registers a new executing tool call on the message and asks the
// sequencer to drop a placeholder at the current sequence position
func (t *toolTracker) start(m *message.Message, seq *contentSequencer, id, name string) error {
	if _, seen := t.owner[id]; seen {
		t.log.Warn("tool call %s started twice, ignored", id)
		return nil
	}
	if _, err := m.AddToolCall(id, name); err != nil {
		return err
	}
	if err := seq.attachToolRef(m, id); err != nil {
		return err
	}
	t.owner[id] = m
	return nil
}

// appendArgs appends a raw argument fragment. Fragments for an unknown or
// settled call carry no useful signal and are dropped with a warning.
func (t *toolTracker) appendArgs(id, delta string) bool {
	_, tc, ok := t.lookup(id)
	if !ok {
		t.log.Warn("args delta for unknown tool call %s, dropped", id)
		return false
	}
	if err := tc.AppendArgs(delta); err != nil {
		t.log.Warn("args delta dropped: %v", err)
		return false
	}
	return true
}

// end transitions the call to completed. A result buffered before the end
// marker is applied in the same step.
func (t *toolTracker) end(id string) (*message.Message, bool) {
	m, tc, ok := t.lookup(id)
	if !ok {
		t.log.Warn("end for unknown tool call %s, ignored", id)
		return nil, false
	}
	if err := tc.Complete(); err != nil {
		t.log.Warn("end for tool call %s ignored: %v", id, err)
		return m, false
	}
	if t.hasPend[id] {
		if err := tc.AttachResult(t.pending[id]); err != nil {
			t.log.Warn("buffered result for tool call %s rejected: %v", id, err)
		}
		delete(t.pending, id)
		delete(t.hasPend, id)
	}
	return m, true
}

// attachResult records the observed tool outcome. Arriving before end it is
// buffered; arriving after end it applies immediately. The outcome is
// authoritative, so a duplicate is the only thing refused.
func (t *toolTracker) attachResult(id string, result any) (*message.Message, bool) {
	m, tc, ok := t.lookup(id)
	if !ok {
		t.log.Warn("result for unknown tool call %s, dropped", id)
		return nil, false
	}

	if tc.Status == message.ToolExecuting {
		if tc.HasResult || t.hasPend[id] {
			t.log.Warn("duplicate result for tool call %s, dropped", id)
			return m, false
		}
		t.pending[id] = result
		t.hasPend[id] = true
		return m, true
	}

	if err := tc.AttachResult(result); err != nil {
		t.log.Warn("result for tool call %s dropped: %v", id, err)
		return m, false
	}
	return m, true
}

// finalize force-completes every executing call that already has an observed
// result. Called when the run closes normally: the observed outcome wins
// over a missed end marker. Cancellation does NOT finalize; it leaves the
// calls exactly as they stood. Calls on a message that settled in an earlier
// run are left untouched.
func (t *toolTracker) finalize() {
	for id, has := range t.hasPend {
		if !has {
			continue
		}
		m, tc, ok := t.lookup(id)
		if !ok || m.Settled() || tc.Status != message.ToolExecuting {
			continue
		}
		if err := tc.Complete(); err == nil {
			if err := tc.AttachResult(t.pending[id]); err != nil {
				t.log.Warn("buffered result for tool call %s rejected: %v", id, err)
			}
		}
		delete(t.pending, id)
		delete(t.hasPend, id)
	}
}

// forget drops every tracker entry owned by a message. Used when the message
// is evicted from retention.
func (t *toolTracker) forget(m *message.Message) {
	for id, owner := range t.owner {
		if owner != m {
			continue
		}
		delete(t.owner, id)
		delete(t.pending, id)
		delete(t.hasPend, id)
	}
}

// lookup resolves a tool call id to its owning message and call
func (t *toolTracker) lookup(id string) (*message.Message, *message.ToolCall, bool) {
	m, ok := t.owner[id]
	if !ok {
		return nil, nil, false
	}
	tc, ok := m.ToolCall(id)
	if !ok {
		return nil, nil, false
	}
	return m, tc, true
}
