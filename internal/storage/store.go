package storage

import (
	"sync"

	"github.com/anindya-dev/interview-assistant-backend/internal/models"
)

var (
	sessionStoreInstance SessionStore
	sessionStoreMu       sync.RWMutex
)

// SetSessionStore sets the global session store instance (call from main.go)
func SetSessionStore(s SessionStore) {
	sessionStoreMu.Lock()
	defer sessionStoreMu.Unlock()
	sessionStoreInstance = s
}

// GetSessionStore returns the global session store instance
func GetSessionStore() SessionStore {
	sessionStoreMu.RLock()
	defer sessionStoreMu.RUnlock()
	return sessionStoreInstance
}

// SessionStore defines the interface for externalizing session state
// between stateless request handlers. Sessions are stored as flat
// string-to-string hashes keyed by an opaque session key.
type SessionStore interface {
	Put(key string, fields map[string]string) error
	Get(key string) (map[string]string, error) // nil map means not found
	Delete(key string) error
}

// InterviewStore defines the interface for archiving completed interviews
type InterviewStore interface {
	SaveInterview(interview *models.Interview) (*models.Interview, error)
	GetInterview(id uint) (*models.Interview, error)
	GetInterviewsByEmail(email string) ([]*models.Interview, error)
}
