package models

import (
	"gorm.io/gorm"
)

// Interview represents a completed interview session
type Interview struct {
	gorm.Model
	CandidateName  string   `json:"candidate_name" gorm:"size:100;not null"`
	CandidateEmail string   `json:"candidate_email" gorm:"size:100;not null;index"`
	Topic          string   `json:"topic" gorm:"size:100;not null"`
	AverageScore   float64  `json:"average_score"`
	Results        []Result `json:"results" gorm:"constraint:OnDelete:CASCADE"`
}

// Result represents a single question-answer result within an interview
type Result struct {
	gorm.Model
	InterviewID uint    `json:"interview_id" gorm:"not null;index"`
	Question    string  `json:"question" gorm:"type:text;not null"`
	Answer      string  `json:"answer" gorm:"type:text"`
	LLMAnswer   string  `json:"llm_answer" gorm:"type:text"` // model-generated reference answer
	Score       float64 `json:"score" gorm:"not null"`
}
