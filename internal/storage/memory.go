package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/anindya-dev/interview-assistant-backend/internal/models"
)

// MemoryStore holds all data in memory for local development and tests
type MemoryStore struct {
	sessions   map[string]map[string]string
	interviews map[uint]*models.Interview

	// Mutexes for thread safety
	sessionMu   sync.RWMutex
	interviewMu sync.RWMutex

	// Counter for ID generation
	interviewCounter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]map[string]string),
		interviews: make(map[uint]*models.Interview),
	}
}

// Session operations

func (m *MemoryStore) Put(key string, fields map[string]string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	// Copy so later mutation by the caller cannot corrupt the stored record
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	m.sessions[key] = copied

	return nil
}

func (m *MemoryStore) Get(key string) (map[string]string, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	fields, exists := m.sessions[key]
	if !exists {
		return nil, nil
	}

	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return copied, nil
}

func (m *MemoryStore) Delete(key string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	delete(m.sessions, key)
	return nil
}

// Interview operations

func (m *MemoryStore) SaveInterview(interview *models.Interview) (*models.Interview, error) {
	m.interviewMu.Lock()
	defer m.interviewMu.Unlock()

	m.interviewCounter++
	interview.ID = m.interviewCounter
	interview.CreatedAt = time.Now()
	interview.UpdatedAt = time.Now()

	m.interviews[interview.ID] = interview
	return interview, nil
}

func (m *MemoryStore) GetInterview(id uint) (*models.Interview, error) {
	m.interviewMu.RLock()
	defer m.interviewMu.RUnlock()

	interview, exists := m.interviews[id]
	if !exists {
		return nil, fmt.Errorf("interview not found")
	}
	return interview, nil
}

func (m *MemoryStore) GetInterviewsByEmail(email string) ([]*models.Interview, error) {
	m.interviewMu.RLock()
	defer m.interviewMu.RUnlock()

	results := []*models.Interview{}
	for _, interview := range m.interviews {
		if interview.CandidateEmail == email {
			results = append(results, interview)
		}
	}
	return results, nil
}
