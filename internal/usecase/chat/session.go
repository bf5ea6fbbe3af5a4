package chat

import (
	"sync"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
)

// State of a chat session.
type State string

// Session states.
const (
	StateNoDocument State = "no_document"
	StateProcessing State = "processing"
	StateReady      State = "ready"
)

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID           string    `json:"id"`
	State        State     `json:"state"`
	ActivateChat bool      `json:"activate_chat"`
	Document     string    `json:"document,omitempty"`
	AdapterID    string    `json:"adapter_id,omitempty"`
	Chunks       int       `json:"chunks"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

type session struct {
	id string

	// opMu serializes processing and queries.
	opMu sync.Mutex

	mu           sync.RWMutex
	state        State
	processing   bool
	activateChat bool
	document     string
	adapterID    string
	generation   int
	engine       *retrieval.QueryEngine
	messages     []domain.Message
	createdAt    time.Time
	lastActive   time.Time
}

func (s *session) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:           s.id,
		State:        s.state,
		ActivateChat: s.activateChat,
		Document:     s.document,
		AdapterID:    s.adapterID,
		MessageCount: len(s.messages),
		CreatedAt:    s.createdAt,
		LastActiveAt: s.lastActive,
	}
	if s.engine != nil {
		snap.Chunks = s.engine.Index().Len()
	}
	return snap
}

func (s *session) appendMessage(m domain.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.lastActive = m.CreatedAt
	s.mu.Unlock()
}

// takeEngine detaches the index and resets the session to no_document.
func (s *session) takeEngine() *retrieval.QueryEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.engine
	s.engine = nil
	s.state = StateNoDocument
	s.activateChat = false
	return e
}

// sessionStore is an in-memory registry of live sessions.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (st *sessionStore) put(s *session) {
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
}

func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *sessionStore) remove(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	return s, ok
}

func (st *sessionStore) list() []*session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
