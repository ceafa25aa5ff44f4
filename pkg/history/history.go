// Package history implements the HistoryStore capability (§6): a uniform
// interface over pluggable conversation-memory backends (local map,
// key-value store, relational table), plus an in-memory and a BadgerDB-
// backed (kind=kv) implementation. It is grounded on the teacher's
// pkg/middleware/memory Store abstraction (Get/Set/Delete/List/Exists over
// a byte-slice value) rather than reinventing a storage interface: each
// session's message log is marshalled as JSON and kept under that Store.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Role is the speaker of a ChatMessage (§3).
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of a session's bounded FIFO history (§3).
type ChatMessage struct {
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the HistoryStore capability (§6). AddMessage appends a turn;
// GetRecent returns the n most recent messages for a session, oldest
// first. Implementations over relational or kv stores must serialize
// writes per sessionId (§5).
type Store interface {
	AddMessage(ctx context.Context, sessionID string, role Role, content string) error
	GetRecent(ctx context.Context, sessionID string, n int) ([]ChatMessage, error)
}

// InMemory is a process-local Store that retains at most maxMessages per
// session as a trailing window (§6 "In-memory variant").
type InMemory struct {
	mu          sync.Mutex
	maxMessages int
	sessions    map[string][]ChatMessage
}

var _ Store = (*InMemory)(nil)

// NewInMemory returns an InMemory store bounding each session to
// maxMessages entries.
func NewInMemory(maxMessages int) *InMemory {
	if maxMessages <= 0 {
		maxMessages = 20
	}
	return &InMemory{maxMessages: maxMessages, sessions: make(map[string][]ChatMessage)}
}

func (s *InMemory) AddMessage(_ context.Context, sessionID string, role Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.sessions[sessionID], ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: now(),
	})
	if len(msgs) > s.maxMessages {
		msgs = msgs[len(msgs)-s.maxMessages:]
	}
	s.sessions[sessionID] = msgs
	return nil
}

func (s *InMemory) GetRecent(_ context.Context, sessionID string, n int) ([]ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.sessions[sessionID]
	if n <= 0 || n >= len(msgs) {
		out := make([]ChatMessage, len(msgs))
		copy(out, msgs)
		return out, nil
	}
	out := make([]ChatMessage, n)
	copy(out, msgs[len(msgs)-n:])
	return out, nil
}

// now is a seam so tests can observe message ordering without depending on
// wall-clock monotonicity across a single process tick.
var now = time.Now

// KVBackend is the subset of the teacher's memory.Store interface this
// package's kv-kind adapter depends on (Get/Set by string key over
// []byte), so any conforming backend (BadgerDB, Redis, ...) can serve as
// the kind=kv HistoryStore without this package importing that backend
// directly.
type KVBackend interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// KV adapts a KVBackend (e.g. the teacher's badger.Store) into a Store,
// JSON-encoding each session's message window under a single key (§6
// "persistent variants must query in descending timestamp and reverse for
// chronological order" — KV stores the window pre-ordered, so no reversal
// is needed at read time).
type KV struct {
	mu          sync.Mutex
	backend     KVBackend
	maxMessages int
}

var _ Store = (*KV)(nil)

// NewKV returns a KV-backed Store bounding each session to maxMessages.
func NewKV(backend KVBackend, maxMessages int) *KV {
	if maxMessages <= 0 {
		maxMessages = 20
	}
	return &KV{backend: backend, maxMessages: maxMessages}
}

func sessionKey(sessionID string) string {
	return "history:" + sessionID
}

func (s *KV) load(sessionID string) ([]ChatMessage, error) {
	raw, err := s.backend.Get(sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var msgs []ChatMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("history: decode session %s: %w", sessionID, err)
	}
	return msgs, nil
}

func (s *KV) AddMessage(_ context.Context, sessionID string, role Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.load(sessionID)
	if err != nil {
		return err
	}
	msgs = append(msgs, ChatMessage{SessionID: sessionID, Role: role, Content: content, CreatedAt: now()})
	if len(msgs) > s.maxMessages {
		msgs = msgs[len(msgs)-s.maxMessages:]
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return s.backend.Set(sessionKey(sessionID), raw)
}

func (s *KV) GetRecent(_ context.Context, sessionID string, n int) ([]ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(msgs) {
		return msgs, nil
	}
	return msgs[len(msgs)-n:], nil
}

// FormatTranscript joins messages as "ROLE: content" lines, the shape the
// Generation Driver prepends to its prompt (§4.9).
func FormatTranscript(msgs []ChatMessage) string {
	var out string
	for i, m := range msgs {
		if i > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("%s: %s", roleLabel(m.Role), m.Content)
	}
	return out
}

func roleLabel(r Role) string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleAssistant:
		return "ASSISTANT"
	default:
		return string(r)
	}
}
