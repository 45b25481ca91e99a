package synthesis

import (
	"time"

	"github.com/johnquangdev/complexchaos/internal/domain/entities"
)

// CritiqueResponse represents a critique
type CritiqueResponse struct {
	ID            string    `json:"id"`
	SynthesisID   string    `json:"synthesis_id"`
	StakeholderID string    `json:"stakeholder_id"`
	Role          string    `json:"role,omitempty"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// SynthesisResponse represents one synthesis version
type SynthesisResponse struct {
	ID         string                     `json:"id"`
	SessionID  string                     `json:"session_id"`
	Version    int                        `json:"version"`
	Content    string                     `json:"content"`
	ModelUsed  string                     `json:"model_used"`
	TokenCount int                        `json:"token_count"`
	Metadata   entities.SynthesisMetadata `json:"metadata"`
	Critiques  []*CritiqueResponse        `json:"critiques,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// UsageResponse is the token accounting of a model call
type UsageResponse struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateResponse is returned by generate, refine and the final stream event
type GenerateResponse struct {
	Synthesis     *SynthesisResponse `json:"synthesis"`
	Usage         UsageResponse      `json:"usage"`
	EstimatedCost float64            `json:"estimated_cost"`
}

// ChunkEvent is the payload of a streamed "chunk" event
type ChunkEvent struct {
	Content string `json:"content"`
}
