// Package chat implements turn-based streaming text conversations. A Session
// keeps the running history and streams each model reply as text deltas; a
// turn is appended to history only after it completes without error, so a
// failed or abandoned turn leaves the conversation where it was.
package chat

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one completed conversation turn.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Backend generates one model reply for a conversation. The last message is
// always the pending user turn. The returned iterator yields text deltas in
// order and at most one terminal error.
type Backend interface {
	Generate(ctx context.Context, msgs []Message) iter.Seq2[string, error]
}

// Session is one conversation. Safe for concurrent reads, but turns must be
// sent one at a time; the history a concurrent Send sees is whatever was
// committed when it started.
type Session struct {
	backend Backend

	mu      sync.Mutex
	history []Message
}

// NewSession creates an empty conversation on the given backend.
func NewSession(backend Backend) *Session {
	return &Session{backend: backend}
}

// Send streams the model's reply to text. The user turn and the full reply
// are committed to history only if the stream is consumed to the end without
// error; breaking out early or hitting an error discards the turn.
func (s *Session) Send(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.mu.Lock()
		turn := append(slices.Clone(s.history), Message{Role: RoleUser, Text: text})
		s.mu.Unlock()

		var reply strings.Builder
		for delta, err := range s.backend.Generate(ctx, turn) {
			if err != nil {
				yield("", err)
				return
			}
			reply.WriteString(delta)
			if !yield(delta, nil) {
				return
			}
		}

		s.mu.Lock()
		s.history = append(s.history,
			Message{Role: RoleUser, Text: text},
			Message{Role: RoleModel, Text: reply.String()},
		)
		s.mu.Unlock()
	}
}

// History returns a snapshot of the committed conversation.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Reset discards the conversation history.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}
