package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Critique is stakeholder feedback on one synthesis. Critiques are append-only.
type Critique struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SynthesisID   uuid.UUID `json:"synthesis_id" gorm:"type:uuid;not null;index"`
	StakeholderID uuid.UUID `json:"stakeholder_id" gorm:"type:uuid;not null;index"`
	Content       string    `json:"content" gorm:"type:text;not null"`

	Stakeholder *Stakeholder `json:"stakeholder,omitempty" gorm:"foreignKey:StakeholderID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (Critique) TableName() string {
	return "critiques"
}

// BeforeCreate assigns an id when the caller did not
func (c *Critique) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewCritique creates a critique of synthesisID
func NewCritique(synthesisID, stakeholderID uuid.UUID, content string) *Critique {
	return &Critique{
		ID:            uuid.New(),
		SynthesisID:   synthesisID,
		StakeholderID: stakeholderID,
		Content:       content,
	}
}
