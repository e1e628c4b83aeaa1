package session

import "sync"

// MemoryStore keeps the session in process memory
type MemoryStore struct {
	mu      sync.Mutex
	session Session
	saves   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	s.LoginCheck = append([]string(nil), m.session.LoginCheck...)
	return &s, nil
}

func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = *s
	m.session.LoginCheck = append([]string(nil), s.LoginCheck...)
	m.saves++
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = Session{}
	return nil
}

// Saves returns how many times Save was called
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
