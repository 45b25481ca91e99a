package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus represents the lifecycle state of a deliberation session
type SessionStatus string

const (
	SessionStatusPending      SessionStatus = "pending"      // Collecting perspectives
	SessionStatusActive       SessionStatus = "active"       // At least one synthesis exists
	SessionStatusSynthesizing SessionStatus = "synthesizing" // Facilitator marked a synthesis round
	SessionStatusCompleted    SessionStatus = "completed"    // Closed by the facilitator
)

// Valid reports whether s is a known status
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusPending, SessionStatusActive, SessionStatusSynthesizing, SessionStatusCompleted:
		return true
	}
	return false
}

// SessionType tags the deliberation domain
type SessionType string

const (
	SessionTypeClimate                 SessionType = "climate"
	SessionTypeStrategicPlanning       SessionType = "strategic_planning"
	SessionTypeProcurement             SessionType = "procurement"
	SessionTypeRiskManagement          SessionType = "risk_management"
	SessionTypeAIAdoption              SessionType = "ai_adoption"
	SessionTypeInstitutionalGovernance SessionType = "institutional_governance"
)

// SessionTypes lists every accepted session type
var SessionTypes = []SessionType{
	SessionTypeClimate,
	SessionTypeStrategicPlanning,
	SessionTypeProcurement,
	SessionTypeRiskManagement,
	SessionTypeAIAdoption,
	SessionTypeInstitutionalGovernance,
}

// Valid reports whether t is a known session type
func (t SessionType) Valid() bool {
	for _, known := range SessionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Session is a deliberation on a single topic. It owns its stakeholders,
// their submissions and the versioned syntheses produced from them.
type Session struct {
	ID            uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string        `json:"title" gorm:"type:varchar(255);not null"`
	Description   *string       `json:"description,omitempty" gorm:"type:text"`
	Type          SessionType   `json:"type" gorm:"type:varchar(50);not null;index"`
	Status        SessionStatus `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`
	FacilitatorID *string       `json:"facilitator_id,omitempty" gorm:"type:varchar(255);index"`

	Stakeholders []Stakeholder `json:"stakeholders,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Submissions  []Submission  `json:"submissions,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Syntheses    []Synthesis   `json:"syntheses,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (Session) TableName() string {
	return "sessions"
}

// BeforeCreate assigns an id when the caller did not
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SessionStatusPending
	}
	return nil
}

// NewSession creates a pending session
func NewSession(title string, sessionType SessionType) *Session {
	return &Session{
		ID:     uuid.New(),
		Title:  title,
		Type:   sessionType,
		Status: SessionStatusPending,
	}
}

// LatestSynthesis returns the highest version among the loaded syntheses, or nil
func (s *Session) LatestSynthesis() *Synthesis {
	var latest *Synthesis
	for i := range s.Syntheses {
		if latest == nil || s.Syntheses[i].Version > latest.Version {
			latest = &s.Syntheses[i]
		}
	}
	return latest
}

// HasStakeholder reports whether the loaded stakeholders include id
func (s *Session) HasStakeholder(id uuid.UUID) bool {
	for _, st := range s.Stakeholders {
		if st.ID == id {
			return true
		}
	}
	return false
}
