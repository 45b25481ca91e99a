package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Synthesis is one versioned consensus document for a session.
// Versions start at 1 and are unique per session. Rows are never updated.
type Synthesis struct {
	ID         uuid.UUID                            `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID  uuid.UUID                            `json:"session_id" gorm:"type:uuid;not null;uniqueIndex:idx_syntheses_session_version,priority:1"`
	Version    int                                  `json:"version" gorm:"not null;uniqueIndex:idx_syntheses_session_version,priority:2"`
	Content    string                               `json:"content" gorm:"type:text;not null"`
	ModelUsed  string                               `json:"model_used" gorm:"type:varchar(100);not null"`
	TokenCount int                                  `json:"token_count" gorm:"not null;default:0"`
	Metadata   datatypes.JSONType[SynthesisMetadata] `json:"metadata"`

	Session   *Session   `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	Critiques []Critique `json:"critiques,omitempty" gorm:"foreignKey:SynthesisID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (Synthesis) TableName() string {
	return "syntheses"
}

// BeforeCreate assigns an id and rejects malformed metadata
func (s *Synthesis) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if !s.Metadata.Data().Valid() {
		return ErrInvalidMetadata
	}
	return nil
}

// NewSynthesis creates an unsaved synthesis for sessionID
func NewSynthesis(sessionID uuid.UUID, version int, content, model string, tokens int, meta SynthesisMetadata) *Synthesis {
	return &Synthesis{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Version:    version,
		Content:    content,
		ModelUsed:  model,
		TokenCount: tokens,
		Metadata:   datatypes.NewJSONType(meta),
	}
}

// MetadataKind discriminates the SynthesisMetadata variants
type MetadataKind string

const (
	MetadataKindGeneration MetadataKind = "generation"
	MetadataKindRefinement MetadataKind = "refinement"
)

// GenerationMetadata describes a synthesis built from the session's submissions
type GenerationMetadata struct {
	SubmissionCount  int               `json:"submission_count"`
	StakeholderRoles []StakeholderRole `json:"stakeholder_roles"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Streamed         bool              `json:"streamed,omitempty"`
}

// RefinementMetadata describes a synthesis built from a prior one plus critiques
type RefinementMetadata struct {
	RefinedFrom   uuid.UUID `json:"refined_from"`
	CritiqueCount int       `json:"critique_count"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// SynthesisMetadata is a tagged variant: exactly one of Generation or
// Refinement is set, matching Kind.
type SynthesisMetadata struct {
	Kind       MetadataKind        `json:"kind"`
	Generation *GenerationMetadata `json:"generation,omitempty"`
	Refinement *RefinementMetadata `json:"refinement,omitempty"`
}

// NewGenerationMetadata wraps m as a generation variant
func NewGenerationMetadata(m GenerationMetadata) SynthesisMetadata {
	return SynthesisMetadata{Kind: MetadataKindGeneration, Generation: &m}
}

// NewRefinementMetadata wraps m as a refinement variant
func NewRefinementMetadata(m RefinementMetadata) SynthesisMetadata {
	return SynthesisMetadata{Kind: MetadataKindRefinement, Refinement: &m}
}

// Valid reports whether exactly the variant named by Kind is present
func (m SynthesisMetadata) Valid() bool {
	switch m.Kind {
	case MetadataKindGeneration:
		return m.Generation != nil && m.Refinement == nil
	case MetadataKindRefinement:
		return m.Refinement != nil && m.Generation == nil
	}
	return false
}
