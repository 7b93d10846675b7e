// Package memory provides an in-memory implementation of the
// storage.Storage interface.
//
// It backs the service and handler tests (no database file, no cgo
// driver) and doubles as a reference implementation of the contract:
// it enforces the same username/email uniqueness backstop the SQLite
// schema enforces with UNIQUE indexes, so code exercised against it
// sees the same error taxonomy it would see in production.
package memory

import (
	"context"
	"sync"

	"github.com/nikhil-saxena/student-records-api/internal/storage"
	"github.com/nikhil-saxena/student-records-api/internal/types"
)

// Memory stores records in a map guarded by a mutex, with a separate
// slice preserving insertion order for GetStudents.
type Memory struct {
	mu      sync.RWMutex
	records map[string]types.Student
	order   []string
}

// New returns an empty in-memory store.
func New() *Memory {
	return &Memory{records: make(map[string]types.Student)}
}

// Len reports how many records are stored. Tests use it to assert
// that failed creates persist nothing.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Memory) CreateStudent(_ context.Context, s types.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Same backstop the SQLite UNIQUE indexes provide, username first.
	for _, id := range m.order {
		other := m.records[id]
		if other.Username == s.Username {
			return &storage.ConflictError{Field: "username"}
		}
	}
	for _, id := range m.order {
		if m.records[id].Email == s.Email {
			return &storage.ConflictError{Field: "email"}
		}
	}

	m.records[s.ID] = s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *Memory) GetStudentByID(_ context.Context, id string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.records[id]
	if !ok {
		return types.Student{}, storage.ErrStudentNotFound
	}
	return s, nil
}

func (m *Memory) GetStudents(_ context.Context) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Student, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out, nil
}

func (m *Memory) GetStudentByUsername(_ context.Context, username string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if m.records[id].Username == username {
			return m.records[id], nil
		}
	}
	return types.Student{}, storage.ErrStudentNotFound
}

func (m *Memory) GetStudentByEmail(_ context.Context, email string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if m.records[id].Email == email {
			return m.records[id], nil
		}
	}
	return types.Student{}, storage.ErrStudentNotFound
}

func (m *Memory) UpdateStudent(_ context.Context, s types.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[s.ID]; !ok {
		return storage.ErrStudentNotFound
	}

	for _, id := range m.order {
		if id == s.ID {
			continue
		}
		if m.records[id].Username == s.Username {
			return &storage.ConflictError{Field: "username"}
		}
	}
	for _, id := range m.order {
		if id == s.ID {
			continue
		}
		if m.records[id].Email == s.Email {
			return &storage.ConflictError{Field: "email"}
		}
	}

	m.records[s.ID] = s
	return nil
}

func (m *Memory) DeleteStudentByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return storage.ErrStudentNotFound
	}
	delete(m.records, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// interface guard
var _ storage.Storage = (*Memory)(nil)
