package studio

import (
	"sync"
)

// WelcomeMessage seeds every fresh conversation.
const WelcomeMessage = "Hi! I'm here to help you create amazing videos. " +
	"Tell me what kind of video you'd like to make and I'll help you bring it to life!"

// Session is one browser session: its coordinator plus the ready flag the
// chat handler toggles.
type Session struct {
	ID string

	coordinator *Coordinator

	mu    sync.Mutex
	ready bool
}

func (s *Session) Coordinator() *Coordinator { return s.coordinator }

func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Session) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// Manager tracks live sessions and builds their coordinators.
type Manager struct {
	deps CoordinatorDeps

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(deps CoordinatorDeps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Create(sessionID, conversationID string) *Session {
	c := NewCoordinator(sessionID, conversationID, m.deps)
	c.SetVideoConfig(m.deps.Defaults)
	s := &Session{ID: sessionID, coordinator: c}

	m.mu.Lock()
	m.sessions[sessionID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}
