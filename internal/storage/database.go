package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/anindya-dev/interview-assistant-backend/internal/models"
)

// DatabaseStore archives completed interviews in PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed interview store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// SaveInterview persists a completed interview with all its results
func (d *DatabaseStore) SaveInterview(interview *models.Interview) (*models.Interview, error) {
	if err := d.db.Create(interview).Error; err != nil {
		return nil, fmt.Errorf("failed to save interview: %w", err)
	}
	return interview, nil
}

// GetInterview retrieves an interview with its results
func (d *DatabaseStore) GetInterview(id uint) (*models.Interview, error) {
	var interview models.Interview
	if err := d.db.Preload("Results").First(&interview, id).Error; err != nil {
		return nil, fmt.Errorf("interview not found: %w", err)
	}
	return &interview, nil
}

// GetInterviewsByEmail retrieves all interviews for a candidate
func (d *DatabaseStore) GetInterviewsByEmail(email string) ([]*models.Interview, error) {
	var interviews []*models.Interview
	if err := d.db.Preload("Results").Where("candidate_email = ?", email).Order("created_at DESC").Find(&interviews).Error; err != nil {
		return nil, fmt.Errorf("failed to query interviews: %w", err)
	}
	return interviews, nil
}
