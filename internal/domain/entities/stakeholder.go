package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StakeholderRole is the perspective a participant speaks for
type StakeholderRole string

const (
	RoleDevelopedNation        StakeholderRole = "developed_nation"
	RoleDevelopingNation       StakeholderRole = "developing_nation"
	RoleCivilSociety           StakeholderRole = "civil_society"
	RoleTechnicalExpert        StakeholderRole = "technical_expert"
	RoleExecutive              StakeholderRole = "executive"
	RoleDepartmentLead         StakeholderRole = "department_lead"
	RoleExternalConsultant     StakeholderRole = "external_consultant"
	RoleEmployeeRepresentative StakeholderRole = "employee_representative"
)

// StakeholderRoles lists every accepted role
var StakeholderRoles = []StakeholderRole{
	RoleDevelopedNation,
	RoleDevelopingNation,
	RoleCivilSociety,
	RoleTechnicalExpert,
	RoleExecutive,
	RoleDepartmentLead,
	RoleExternalConsultant,
	RoleEmployeeRepresentative,
}

// Valid reports whether r is a known role
func (r StakeholderRole) Valid() bool {
	for _, known := range StakeholderRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Stakeholder is a participant in exactly one session
type Stakeholder struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID uuid.UUID       `json:"session_id" gorm:"type:uuid;not null;index"`
	Name      string          `json:"name" gorm:"type:varchar(255);not null"`
	Email     string          `json:"email" gorm:"type:varchar(255)"`
	Role      StakeholderRole `json:"role" gorm:"type:varchar(50);not null;index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (Stakeholder) TableName() string {
	return "stakeholders"
}

// BeforeCreate assigns an id when the caller did not
func (s *Stakeholder) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NewStakeholder creates a stakeholder bound to sessionID
func NewStakeholder(sessionID uuid.UUID, name, email string, role StakeholderRole) *Stakeholder {
	return &Stakeholder{
		ID:        uuid.New(),
		SessionID: sessionID,
		Name:      name,
		Email:     email,
		Role:      role,
	}
}
