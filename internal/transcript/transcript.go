// Package transcript keeps the growing message list for a conversation
// session in process memory.
//
// The original demo kept the transcript in the browser's localStorage;
// serving a UI over HTTP moves the same collaborator server-side. The
// store is append-only, wiped on restart, and deliberately knows
// nothing about storage formats or persistence.
package transcript

import (
	"sync"

	"github.com/shoptalk-demo/shoptalk/internal/toolcall"
)

// Store is an append-only, in-memory transcript.
// Safe for concurrent use; all reads return copies.
type Store struct {
	mu       sync.RWMutex
	messages []toolcall.Message
}

// New creates an empty transcript store.
func New() *Store {
	return &Store{}
}

// Append adds a message and returns the full ordered history including it.
func (s *Store) Append(msg toolcall.Message) []toolcall.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return s.copyLocked()
}

// Messages returns the full ordered history.
func (s *Store) Messages() []toolcall.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Len returns the number of messages in the transcript.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Clear removes every message.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// copyLocked copies the message slice and each message's tool calls.
// Callers must hold at least a read lock.
func (s *Store) copyLocked() []toolcall.Message {
	out := make([]toolcall.Message, len(s.messages))
	copy(out, s.messages)
	for i := range out {
		if out[i].ToolCalls != nil {
			calls := make([]toolcall.ToolCall, len(out[i].ToolCalls))
			copy(calls, out[i].ToolCalls)
			out[i].ToolCalls = calls
		}
	}
	return out
}
