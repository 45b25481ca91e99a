package session

import (
	"time"

	"github.com/johnquangdev/complexchaos/internal/adapter/dto/synthesis"
)

// StakeholderResponse represents a stakeholder
type StakeholderResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionResponse represents a submission
type SubmissionResponse struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	StakeholderID string    `json:"stakeholder_id"`
	Role          string    `json:"role,omitempty"`
	Content       string    `json:"content"`
	Type          string    `json:"type"`
	FileURL       *string   `json:"file_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SessionResponse represents a session with what it owns
type SessionResponse struct {
	ID              string                       `json:"id"`
	Title           string                       `json:"title"`
	Description     *string                      `json:"description,omitempty"`
	Type            string                       `json:"type"`
	Status          string                       `json:"status"`
	FacilitatorID   *string                      `json:"facilitator_id,omitempty"`
	Stakeholders    []*StakeholderResponse       `json:"stakeholders"`
	Submissions     []*SubmissionResponse        `json:"submissions"`
	LatestSynthesis *synthesis.SynthesisResponse `json:"latest_synthesis,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

// DiversityResponse reports how varied the submissions are
type DiversityResponse struct {
	Index           float64 `json:"index"`
	SubmissionCount int     `json:"submission_count"`
	TokenEstimate   int     `json:"token_estimate"`
}
