package assembler

import (
	"github.com/opspilot/agui/pkg/logger"
	"github.com/opspilot/agui/pkg/message"
)

// contentSequencer maintains the ordered, addressable list of visible
// content segments for each message. The flat segment index carried by every
// part is what lets text spans interleave correctly around tool-call
// placeholders and component payloads: the part sequence always reflects the
// true arrival order of the underlying start/attach events.
type contentSequencer struct {
	// current open text part per message; nil when text is not being
	// appended right now
	open map[string]*message.ContentPart

	// whether the text channel is logically open per message. When a
	// placeholder interrupts an open text span, the current part is sealed
	// but the channel stays open so the next delta starts a continuation
	// part after the placeholder.
	textOpen map[string]bool

	log *logger.Logger
}

func newContentSequencer(log *logger.Logger) *contentSequencer {
	return &contentSequencer{
		open:     make(map[string]*message.ContentPart),
		textOpen: make(map[string]bool),
		log:      log,
	}
}

// openText begins (or resumes) a text span. If the most recently created
// part is still an open text part, adjacent start markers collapse into it;
// otherwise a fresh part preserves arrival-order fidelity.
func (s *contentSequencer) openText(m *message.Message) error {
	s.textOpen[m.ID] = true

	if last, ok := m.LastPart(); ok && last.Kind == message.PartText && last.Open && s.open[m.ID] == last {
		return nil
	}

	part, err := m.AddTextPart()
	if err != nil {
		return err
	}
	s.open[m.ID] = part
	return nil
}

// appendText appends a delta to the message's open text part. A delta with
// no open text channel is ordering noise and is dropped with a warning.
func (s *contentSequencer) appendText(m *message.Message, delta string) bool {
	if !s.textOpen[m.ID] {
		s.log.Warn("text delta for %s with no open text part, dropped", m.ID)
		return false
	}

	part := s.open[m.ID]
	if part == nil {
		// A placeholder split the span; continue in a new part so arrival
		// order stays intact.
		var err error
		part, err = m.AddTextPart()
		if err != nil {
			s.log.Warn("text delta for %s rejected: %v", m.ID, err)
			return false
		}
		s.open[m.ID] = part
	}

	if err := part.AppendText(delta); err != nil {
		s.log.Warn("text delta for %s rejected: %v", m.ID, err)
		return false
	}
	return true
}

// closeText seals the open text span. Returns false when none was open.
func (s *contentSequencer) closeText(m *message.Message) bool {
	if !s.textOpen[m.ID] {
		s.log.Warn("text end for %s with no open text part, ignored", m.ID)
		return false
	}
	if part := s.open[m.ID]; part != nil {
		part.Close()
	}
	s.open[m.ID] = nil
	s.textOpen[m.ID] = false
	return true
}

// attachCustom inserts a component part at the current sequence position.
// Custom payloads are atomic, so there is no delta phase.
func (s *contentSequencer) attachCustom(m *message.Message, name string, props map[string]any) error {
	s.interrupt(m)
	_, err := m.AddComponentPart(name, props)
	return err
}

// attachToolRef inserts a tool-call placeholder at the current sequence
// position, which is what makes tool invocations appear inline with the
// surrounding text rather than trailing the message
func (s *contentSequencer) attachToolRef(m *message.Message, toolCallID string) error {
	s.interrupt(m)
	_, err := m.AddToolRefPart(toolCallID)
	return err
}

// interrupt seals the open text part ahead of an inserted placeholder while
// leaving the text channel open for a continuation part
func (s *contentSequencer) interrupt(m *message.Message) {
	if part := s.open[m.ID]; part != nil {
		part.Close()
		s.open[m.ID] = nil
	}
}

// forget drops per-message bookkeeping once a message settles
func (s *contentSequencer) forget(messageID string) {
	delete(s.open, messageID)
	delete(s.textOpen, messageID)
}
