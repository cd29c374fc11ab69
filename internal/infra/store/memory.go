package store

import (
	"context"
	"sync"

	"interview-bot/internal/domain"
)

// Memory is a process-local session store. Sessions live for the lifetime of
// the process; eviction is owned by whoever owns the store.
type Memory struct {
	mu       sync.Mutex
	sessions map[int64]*domain.Session
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[int64]*domain.Session)}
}

// Get returns a copy of the stored session, creating a fresh one on first
// access. Mutations only become durable through Put.
func (m *Memory) Get(_ context.Context, chatID int64) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[chatID]
	if !ok {
		return domain.NewSession(chatID), nil
	}
	return sess.Clone(), nil
}

func (m *Memory) Put(_ context.Context, sess *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.ChatID] = sess.Clone()
	return nil
}
