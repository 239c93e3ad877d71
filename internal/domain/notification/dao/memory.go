package dao

import (
	"context"
	"sync"

	"github.com/vadim/neo-studio/internal/domain/notification/entity"
)

// Memory keeps the last notifications in a fixed-size ring buffer
type Memory struct {
	mu   sync.Mutex
	buf  []entity.Notification
	next int
	full bool
}

// NewMemory creates a ring buffer holding up to size notifications
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 1
	}
	return &Memory{buf: make([]entity.Notification, size)}
}

// Save stores n. The oldest notification is overwritten when the buffer is
// full.
func (m *Memory) Save(_ context.Context, n entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buf[m.next] = n
	m.next = (m.next + 1) % len(m.buf)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent returns up to limit notifications, newest first
func (m *Memory) Recent(_ context.Context, limit int) ([]entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := m.next
	if m.full {
		count = len(m.buf)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]entity.Notification, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.buf)) % len(m.buf)
		out = append(out, m.buf[idx])
	}
	return out, nil
}
