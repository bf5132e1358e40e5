// Package history keeps the per-session conversation used to build
// completion requests.
package history

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"copilot-codegen/internal/llm"
)

var (
	// ErrUnknownSession is returned for session IDs the store has never issued.
	ErrUnknownSession = errors.New("unknown session")

	// ErrIndexOutOfRange is returned by Delete for an index outside the session.
	ErrIndexOutOfRange = errors.New("history index out of range")
)

// Store holds ordered message lists keyed by session ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]llm.ChatMessage
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string][]llm.ChatMessage)}
}

// NewSession registers an empty session and returns its ID.
func (s *Store) NewSession() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = nil
	s.mu.Unlock()
	return id
}

// Ensure returns id when it is known, otherwise a freshly created session.
func (s *Store) Ensure(id string) string {
	if id != "" {
		s.mu.RLock()
		_, ok := s.sessions[id]
		s.mu.RUnlock()
		if ok {
			return id
		}
	}
	return s.NewSession()
}

// Append adds a message to the end of the session. The role is validated
// and normalised with llm.NewChatMessage.
func (s *Store) Append(id string, msg llm.ChatMessage) error {
	msg, err := llm.NewChatMessage(string(msg.Role), msg.Content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, ok := s.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	s.sessions[id] = append(msgs, msg)
	return nil
}

// Messages returns a copy of the whole session.
func (s *Store) Messages(id string) ([]llm.ChatMessage, error) {
	return s.Last(id, -1)
}

// Last returns a copy of the final n messages of the session. A negative n
// returns all of them.
func (s *Store) Last(id string, n int) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	if n >= 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]llm.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Delete removes the message at index.
func (s *Store) Delete(id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, ok := s.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	if index < 0 || index >= len(msgs) {
		return ErrIndexOutOfRange
	}
	s.sessions[id] = append(msgs[:index:index], msgs[index+1:]...)
	return nil
}

// Clear empties the session but keeps its ID valid.
func (s *Store) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrUnknownSession
	}
	s.sessions[id] = nil
	return nil
}
