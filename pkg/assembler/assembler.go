// Package assembler reduces the flat, ordered AG-UI event stream of one
// conversation turn to a structured, renderable message model. It consumes
// decoded frames one at a time and owns every Message it creates until the
// message settles, at which point the snapshot is handed to the history
// recorder. How frames arrive and how results render are collaborator
// concerns.
package assembler

import (
	"sync"

	"github.com/opspilot/agui/pkg/agui"
	"github.com/opspilot/agui/pkg/history"
	"github.com/opspilot/agui/pkg/logger"
	"github.com/opspilot/agui/pkg/message"
)

// UpdateFunc observes the snapshot of a message after each mutation
type UpdateFunc func(m *message.Message)

// Option configures an Assembler
type Option func(*Assembler)

// WithLogger sets the logger. The default drops everything.
func WithLogger(log *logger.Logger) Option {
	return func(a *Assembler) {
		a.log = log
	}
}

// WithRecorder sets the history recorder that receives settled messages
func WithRecorder(rec history.Recorder) Option {
	return func(a *Assembler) {
		a.recorder = rec
	}
}

// WithUpdateFunc registers a renderer callback invoked with a snapshot after
// every feed that mutated a message
func WithUpdateFunc(fn UpdateFunc) Option {
	return func(a *Assembler) {
		a.onUpdate = fn
	}
}

// WithStrict escalates ordering noise (deltas with no open channel, duplicate
// end or result markers) from logged drops to protocol violations that settle
// the affected message as an error
func WithStrict(strict bool) Option {
	return func(a *Assembler) {
		a.strict = strict
	}
}

// WithMaxMessages caps how many messages the assembler retains. When the cap
// is exceeded the oldest settled message is evicted; live messages are never
// evicted. Zero means unbounded.
func WithMaxMessages(n int) Option {
	return func(a *Assembler) {
		a.maxMessages = n
	}
}

// Assembler turns raw event records into Message state. All mutation happens
// synchronously inside Feed in stream arrival order; the mutex only guards
// against a Cancel signal arriving from another goroutine between frames.
type Assembler struct {
	mu sync.Mutex

	log       *logger.Logger
	run       runTracker
	thinking  *thinkingBuffer
	sequencer *contentSequencer
	tools     *toolTracker
	recorder  history.Recorder
	onUpdate  UpdateFunc

	strict      bool
	maxMessages int

	messages map[string]*message.Message
	order    []string

	// last message touched by a message-scoped event of the open run;
	// run-level settlement reports this one to the caller
	lastActive *message.Message
}

// New creates an Assembler
func New(opts ...Option) *Assembler {
	a := &Assembler{
		log:      logger.NewDiscard(),
		messages: make(map[string]*message.Message),
		order:    make([]string, 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.thinking = newThinkingBuffer(a.log)
	a.sequencer = newContentSequencer(a.log)
	a.tools = newToolTracker(a.log)
	return a
}

// Feed consumes one raw record and returns a snapshot of the message it
// affected, nil when no message was touched. Errors never stop the stream:
// a *agui.DecodeError means the frame was dropped, a *ProtocolViolationError
// means the affected message (if any) was settled as an error. The caller
// keeps feeding either way.
func (a *Assembler) Feed(raw []byte) (*message.Message, error) {
	ev, err := agui.Decode(raw)
	if err != nil {
		a.log.Warn("frame dropped: %v", err)
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if ev.IsRunEvent() {
		return a.handleRunEvent(ev)
	}
	return a.handleMessageEvent(ev)
}

// Cancel closes the open run and forces every non-terminal message to
// settled-ended, leaving all partially built content and tool-call state
// exactly as it stood. Cancelling twice, or with nothing open, is a no-op.
func (a *Assembler) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.run.isOpen() {
		a.log.Info("run %s cancelled", a.run.runID)
	}
	a.run.abort()
	a.settleAll(message.StatusSettledEnded, "")
}

// Messages returns snapshots of every message in creation order
func (a *Assembler) Messages() []*message.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*message.Message, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.messages[id].Clone())
	}
	return out
}

// Message returns a snapshot of one message by id
func (a *Assembler) Message(id string) (*message.Message, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.messages[id]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// handleRunEvent routes run lifecycle markers
func (a *Assembler) handleRunEvent(ev agui.Event) (*message.Message, error) {
	switch ev.Type {
	case agui.EventRunStarted:
		if err := a.run.openRun(ev.RunID, ev.ThreadID); err != nil {
			a.log.Error("%v", err)
			return nil, err
		}
		a.lastActive = nil
		a.log.Debug("run %s opened (thread %s)", ev.RunID, ev.ThreadID)
		return nil, nil

	case agui.EventRunFinished:
		if err := a.run.closeRun(ev.RunID); err != nil {
			a.log.Error("%v", err)
			return nil, err
		}
		a.log.Debug("run %s finished", ev.RunID)
		a.tools.finalize()
		last := a.lastActive
		a.settleAll(message.StatusSettledSuccess, "")
		if last != nil {
			return a.snapshotByID(last.ID), nil
		}
		return nil, nil

	case agui.EventRunError:
		a.log.Warn("run error: %s (%s)", ev.Message, ev.Code)
		a.run.abort()
		a.tools.finalize()
		last := a.lastActive
		a.settleAll(message.StatusSettledError, ev.Message)
		if last != nil {
			return a.snapshotByID(last.ID), nil
		}
		return nil, nil
	}
	return nil, nil
}

// handleMessageEvent routes message-scoped events to the owning message,
// creating it on first sight
func (a *Assembler) handleMessageEvent(ev agui.Event) (*message.Message, error) {
	if !a.run.isOpen() {
		err := &ProtocolViolationError{
			Reason:    string(ev.Type) + " outside any run",
			MessageID: ev.MessageID,
		}
		a.log.Error("%v", err)
		// The violation is fatal to the named message only, when one exists
		if m, ok := a.messages[ev.MessageID]; ok && !m.Settled() {
			a.settle(m, message.StatusSettledError, err.Error())
			return m.Clone(), err
		}
		return nil, err
	}

	switch ev.Type {
	case agui.EventThinkingStart:
		m := a.lookupOrCreate(ev.MessageID)
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		if m.Status == message.StatusDraft {
			a.transition(m, message.StatusThinking)
		}
		a.thinking.start(m)
		return a.published(m), nil

	case agui.EventThinkingContent:
		m := a.lookupOrCreate(ev.MessageID)
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		if !a.thinking.append(m, ev.Delta) {
			return a.noise(m, "thinking delta with no open thinking channel")
		}
		return a.published(m), nil

	case agui.EventThinkingEnd:
		m := a.lookupOrCreate(ev.MessageID)
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		if !a.thinking.end(m) {
			return a.noise(m, "thinking end with no open thinking channel")
		}
		return a.published(m), nil

	case agui.EventTextMessageStart:
		m := a.lookupOrCreate(ev.MessageID)
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		if ev.Role != "" {
			m.Role = ev.Role
		}
		a.ensureStreaming(m)
		if err := a.sequencer.openText(m); err != nil {
			a.log.Warn("text start for %s rejected: %v", m.ID, err)
		}
		return a.published(m), nil

	case agui.EventTextMessageContent:
		m := a.lookupOrCreate(ev.MessageID)
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		if !a.sequencer.appendText(m, ev.Delta) {
			return a.noise(m, "text delta with no open text span")
		}
		return a.published(m), nil

	case agui.EventTextMessageEnd:
		m := a.lookupOrCreate(ev.MessageID)
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		if !a.sequencer.closeText(m) {
			return a.noise(m, "text end with no open text span")
		}
		return a.published(m), nil

	case agui.EventToolCallStart:
		m := a.lookupOrCreate(ev.ParentMessageID)
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		a.ensureStreaming(m)
		if err := a.tools.start(m, a.sequencer, ev.ToolCallID, ev.ToolCallName); err != nil {
			a.log.Warn("tool call start rejected: %v", err)
		}
		return a.published(m), nil

	case agui.EventToolCallArgs:
		m, _, ok := a.tools.lookup(ev.ToolCallID)
		if !ok {
			a.log.Warn("args delta for unknown tool call %s, dropped", ev.ToolCallID)
			return nil, nil
		}
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		a.tools.appendArgs(ev.ToolCallID, ev.Delta)
		return a.published(m), nil

	case agui.EventToolCallEnd:
		m, _, ok := a.tools.lookup(ev.ToolCallID)
		if !ok {
			a.log.Warn("end for unknown tool call %s, ignored", ev.ToolCallID)
			return nil, nil
		}
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		if _, changed := a.tools.end(ev.ToolCallID); !changed {
			return a.noise(m, "end for tool call "+ev.ToolCallID+" that is not executing")
		}
		m.Touch()
		return a.published(m), nil

	case agui.EventToolResult:
		m, _, ok := a.tools.lookup(ev.ToolCallID)
		if !ok {
			a.log.Warn("result for unknown tool call %s, dropped", ev.ToolCallID)
			return nil, nil
		}
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		if _, changed := a.tools.attachResult(ev.ToolCallID, ev.ResultPayload()); !changed {
			return a.noise(m, "duplicate result for tool call "+ev.ToolCallID)
		}
		m.Touch()
		return a.published(m), nil

	case agui.EventCustom:
		m := a.lookupOrCreate(ev.MessageID)
		if a.discardIfSettled(m, ev) {
			return m.Clone(), nil
		}
		a.ensureStreaming(m)
		name, props := customPayload(ev)
		if err := a.sequencer.attachCustom(m, name, props); err != nil {
			a.log.Warn("custom payload for %s rejected: %v", m.ID, err)
		}
		return a.published(m), nil
	}

	return nil, nil
}

// customPayload unpacks a CUSTOM event. render_component events nest the
// component name and props inside value; other custom names attach the raw
// value bag under the event's own name.
func customPayload(ev agui.Event) (string, map[string]any) {
	if ev.Name == agui.CustomRenderComponent {
		name, _ := ev.Value["component"].(string)
		if name == "" {
			name = agui.CustomRenderComponent
		}
		if props, ok := ev.Value["props"].(map[string]any); ok {
			return name, props
		}
		return name, nil
	}
	return ev.Name, ev.Value
}

// noise resolves an ordering anomaly: a logged drop by default, a protocol
// violation fatal to the affected message in strict mode
func (a *Assembler) noise(m *message.Message, reason string) (*message.Message, error) {
	if !a.strict {
		return m.Clone(), nil
	}
	err := &ProtocolViolationError{Reason: reason, RunID: a.run.runID, MessageID: m.ID}
	a.settle(m, message.StatusSettledError, err.Error())
	return m.Clone(), err
}

// lookupOrCreate resolves a message id, creating a draft message on first
// sight
func (a *Assembler) lookupOrCreate(id string) *message.Message {
	if m, ok := a.messages[id]; ok {
		a.lastActive = m
		return m
	}
	m := message.New(id)
	a.messages[id] = m
	a.order = append(a.order, id)
	a.lastActive = m
	a.log.Debug("message %s created", id)
	a.evictOverCap()
	return m
}

// evictOverCap drops the oldest settled messages until the retained count is
// back under the cap. Live messages are never evicted, so a burst of open
// messages may exceed the cap until they settle.
func (a *Assembler) evictOverCap() {
	if a.maxMessages <= 0 {
		return
	}
	for len(a.order) > a.maxMessages {
		evicted := false
		for i, id := range a.order {
			m := a.messages[id]
			if !m.Settled() {
				continue
			}
			a.order = append(a.order[:i], a.order[i+1:]...)
			delete(a.messages, id)
			a.tools.forget(m)
			a.log.Debug("message %s evicted over retention cap", id)
			evicted = true
			break
		}
		if !evicted {
			return
		}
	}
}

// discardIfSettled logs and drops events addressed to a terminal message
func (a *Assembler) discardIfSettled(m *message.Message, ev agui.Event) bool {
	if !m.Settled() {
		return false
	}
	a.log.Warn("%s for settled message %s, discarded", ev.Type, m.ID)
	return true
}

// ensureStreaming moves a draft or thinking message to streaming on its
// first substantive visible-content event
func (a *Assembler) ensureStreaming(m *message.Message) {
	if m.Status == message.StatusDraft || m.Status == message.StatusThinking {
		a.transition(m, message.StatusStreaming)
	}
}

// transition applies a status change, logging any table rejection. The
// routing above only requests declared transitions, so a rejection here
// indicates a bug, not stream noise.
func (a *Assembler) transition(m *message.Message, to message.Status) {
	if err := m.SetStatus(to); err != nil {
		a.log.Error("message %s: %v", m.ID, err)
	}
}

// settle moves a message to a terminal status once and hands the snapshot to
// the history recorder
func (a *Assembler) settle(m *message.Message, to message.Status, reason string) {
	if m.Settled() {
		return
	}
	if reason != "" {
		m.Error = reason
	}
	a.transition(m, to)
	a.sequencer.forget(m.ID)
	a.thinking.forget(m.ID)

	if a.recorder != nil {
		if err := a.recorder.Record(m.Clone()); err != nil {
			a.log.Error("history handoff for %s failed: %v", m.ID, err)
		}
	}
	if a.onUpdate != nil {
		a.onUpdate(m.Clone())
	}
}

// settleAll settles every non-terminal message
func (a *Assembler) settleAll(to message.Status, reason string) {
	for _, id := range a.order {
		a.settle(a.messages[id], to, reason)
	}
}

// published notifies the renderer callback and returns the snapshot
func (a *Assembler) published(m *message.Message) *message.Message {
	snap := m.Clone()
	if a.onUpdate != nil {
		a.onUpdate(snap)
	}
	return snap
}

func (a *Assembler) snapshotByID(id string) *message.Message {
	if m, ok := a.messages[id]; ok {
		return m.Clone()
	}
	return nil
}
