package assembler

import (
	"github.com/opspilot/agui/pkg/logger"
	"github.com/opspilot/agui/pkg/message"
)

// thinkingStage tracks the reasoning channel per message
type thinkingStage int

const (
	thinkingIdle thinkingStage = iota
	thinkingOpen
	thinkingClosed
)

// thinkingBuffer accumulates the optional private reasoning channel of each
// message. Thinking text never interleaves with visible content. Deltas
// arriving while the channel is idle or after it closed are ordering noise:
// they are dropped with a warning, never fatal, because strict rejection
// would lose an otherwise-complete response for a recoverable glitch.
type thinkingBuffer struct {
	stages map[string]thinkingStage
	log    *logger.Logger
}

func newThinkingBuffer(log *logger.Logger) *thinkingBuffer {
	return &thinkingBuffer{
		stages: make(map[string]thinkingStage),
		log:    log,
	}
}

// start opens the reasoning channel for a message
func (b *thinkingBuffer) start(m *message.Message) {
	if b.stages[m.ID] == thinkingOpen {
		b.log.Warn("thinking channel for %s already open", m.ID)
		return
	}
	b.stages[m.ID] = thinkingOpen
}

// append adds a fragment to the open channel. Returns false when the delta
// was dropped as ordering noise.
func (b *thinkingBuffer) append(m *message.Message, delta string) bool {
	if b.stages[m.ID] != thinkingOpen {
		b.log.Warn("thinking delta for %s with channel %s, dropped", m.ID, b.stageName(m.ID))
		return false
	}
	if err := m.AppendThinking(delta); err != nil {
		b.log.Warn("thinking delta for %s rejected: %v", m.ID, err)
		return false
	}
	return true
}

// end closes the reasoning channel. Returns false when no channel was open.
func (b *thinkingBuffer) end(m *message.Message) bool {
	if b.stages[m.ID] != thinkingOpen {
		b.log.Warn("thinking end for %s with channel %s, ignored", m.ID, b.stageName(m.ID))
		return false
	}
	b.stages[m.ID] = thinkingClosed
	return true
}

// forget drops per-message bookkeeping once a message settles
func (b *thinkingBuffer) forget(messageID string) {
	delete(b.stages, messageID)
}

func (b *thinkingBuffer) stageName(messageID string) string {
	switch b.stages[messageID] {
	case thinkingOpen:
		return "open"
	case thinkingClosed:
		return "closed"
	default:
		return "idle"
	}
}
