package telegram

import "sync"

// Conversation states. A chat with no entry is in the neutral state.
const (
	stateWaitingContact = "waiting_for_contact"
	stateWritingNote    = "writing_note"
)

type session struct {
	State         string
	NoteProject   string
	NoteTaskIndex int
}

// sessionStore keeps per-chat conversation state between webhook deliveries.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*session)}
}

func (s *sessionStore) get(chatID int64) session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[chatID]; ok {
		return *sess
	}
	return session{}
}

func (s *sessionStore) set(chatID int64, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = &sess
}

func (s *sessionStore) clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}
