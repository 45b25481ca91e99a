package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionType tells how the perspective was captured
type SubmissionType string

const (
	SubmissionTypeText     SubmissionType = "text"
	SubmissionTypeAudio    SubmissionType = "audio"
	SubmissionTypeDocument SubmissionType = "document"
)

// Valid reports whether t is a known submission type
func (t SubmissionType) Valid() bool {
	switch t {
	case SubmissionTypeText, SubmissionTypeAudio, SubmissionTypeDocument:
		return true
	}
	return false
}

// Submission is one stakeholder's perspective. Submissions are append-only.
type Submission struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID     uuid.UUID      `json:"session_id" gorm:"type:uuid;not null;index"`
	StakeholderID uuid.UUID      `json:"stakeholder_id" gorm:"type:uuid;not null;index"`
	Content       string         `json:"content" gorm:"type:text;not null"`
	Type          SubmissionType `json:"type" gorm:"type:varchar(50);not null;default:'text'"`
	FileURL       *string        `json:"file_url,omitempty" gorm:"type:text"` // object key for audio/document uploads

	Stakeholder *Stakeholder `json:"stakeholder,omitempty" gorm:"foreignKey:StakeholderID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (Submission) TableName() string {
	return "submissions"
}

// BeforeCreate assigns an id when the caller did not
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Type == "" {
		s.Type = SubmissionTypeText
	}
	return nil
}

// NewSubmission creates a text submission
func NewSubmission(sessionID, stakeholderID uuid.UUID, content string) *Submission {
	return &Submission{
		ID:            uuid.New(),
		SessionID:     sessionID,
		StakeholderID: stakeholderID,
		Content:       content,
		Type:          SubmissionTypeText,
	}
}

// Role returns the author's role, or "" when the stakeholder was not loaded
func (s *Submission) Role() StakeholderRole {
	if s.Stakeholder == nil {
		return ""
	}
	return s.Stakeholder.Role
}
