package conversation

import (
	"sort"
	"sync"
)

type session struct {
	mu   sync.Mutex
	conv *Conversation
}

// Store maps session ids to conversations. Each session has its own lock;
// the map lock is never held across a model call.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*session)}
}

// acquire returns the locked session for id, creating it when create is set.
// The caller must unlock it.
func (s *Store) acquire(id string, create bool) *session {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		if !create {
			s.mu.Unlock()
			return nil
		}
		sess = &session{conv: &Conversation{}}
		s.sessions[id] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	return sess
}

// Len is the number of sessions created so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// IDs returns the known session ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// History returns a copy of the turns recorded for id, or nil if the
// session does not exist.
func (s *Store) History(id string) []Turn {
	sess := s.acquire(id, false)
	if sess == nil {
		return nil
	}
	defer sess.mu.Unlock()
	return sess.conv.Turns()
}
