package chat

import (
	"container/list"
	"sync"

	"github.com/firebase/genkit/go/ai"
)

// Entry is one completed user/model exchange.
type Entry struct {
	UserMessage string
	AIMessage   string
}

// Sessions holds per-session conversation history in memory.
//
// Each session keeps at most maxEntries recent exchanges; when the
// number of sessions exceeds maxSessions, the least recently used
// session is evicted. Safe for concurrent use.
type Sessions struct {
	mu          sync.Mutex
	maxEntries  int
	maxSessions int
	sessions    map[string]*list.Element
	order       *list.List // front = most recently used
}

type sessionState struct {
	id      string
	entries []Entry
}

// NewSessions creates a session history store.
func NewSessions(maxEntries, maxSessions int) *Sessions {
	if maxEntries < 1 {
		maxEntries = 1
	}
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &Sessions{
		maxEntries:  maxEntries,
		maxSessions: maxSessions,
		sessions:    make(map[string]*list.Element),
		order:       list.New(),
	}
}

// Append records a completed exchange for the session, creating the
// session if needed and evicting the oldest entry or session when caps
// are hit.
func (s *Sessions) Append(sessionID string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.sessions[sessionID]
	if !ok {
		if len(s.sessions) >= s.maxSessions {
			s.evictOldestLocked()
		}
		elem = s.order.PushFront(&sessionState{id: sessionID})
		s.sessions[sessionID] = elem
	} else {
		s.order.MoveToFront(elem)
	}

	state := elem.Value.(*sessionState)
	state.entries = append(state.entries, entry)
	if len(state.entries) > s.maxEntries {
		state.entries = state.entries[len(state.entries)-s.maxEntries:]
	}
}

// Messages projects a session's history into the model message format:
// one user message and one model message per exchange, chronological.
// Unknown sessions yield nil.
func (s *Sessions) Messages(sessionID string) []*ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	s.order.MoveToFront(elem)

	state := elem.Value.(*sessionState)
	msgs := make([]*ai.Message, 0, len(state.entries)*2)
	for _, e := range state.entries {
		msgs = append(msgs,
			ai.NewUserMessage(ai.NewTextPart(e.UserMessage)),
			ai.NewModelMessage(ai.NewTextPart(e.AIMessage)),
		)
	}
	return msgs
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) evictOldestLocked() {
	oldest := s.order.Back()
	if oldest == nil {
		return
	}
	state := oldest.Value.(*sessionState)
	delete(s.sessions, state.id)
	s.order.Remove(oldest)
}
