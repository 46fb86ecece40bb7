// Package history is the handoff target for settled messages. The assembler
// never keeps ambient storage of finished conversations; it hands each
// settled message to a Recorder exactly once and forgets about it.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/opspilot/agui/pkg/message"
)

// Recorder receives settled messages from the assembler
type Recorder interface {
	Record(m *message.Message) error
}

// MemoryRecorder keeps settled messages in memory, in arrival order
type MemoryRecorder struct {
	messages []*message.Message
	mu       sync.RWMutex
}

// NewMemoryRecorder creates an in-memory recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		messages: make([]*message.Message, 0),
	}
}

// Record appends a settled message
func (r *MemoryRecorder) Record(m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

// Messages returns the recorded messages in arrival order
func (r *MemoryRecorder) Messages() []*message.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := make([]*message.Message, len(r.messages))
	copy(msgs, r.messages)
	return msgs
}

// FileRecorder persists settled messages to one JSON file per conversation
type FileRecorder struct {
	Messages []*message.Message `json:"messages"`
	mu       sync.Mutex
	filePath string
}

// NewFileRecorder creates a file-backed recorder
func NewFileRecorder(filePath string) (*FileRecorder, error) {
	r := &FileRecorder{
		Messages: make([]*message.Message, 0),
		filePath: filePath,
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	// Load existing history if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := r.load(); err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
	}

	return r, nil
}

// Record appends a settled message and saves the file
func (r *FileRecorder) Record(m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Messages = append(r.Messages, m)
	return r.save()
}

// load reads the history file
func (r *FileRecorder) load() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}
	if err := json.Unmarshal(data, r); err != nil {
		return fmt.Errorf("failed to parse history file: %w", err)
	}
	return nil
}

// save writes the history file
func (r *FileRecorder) save() error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(r.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
