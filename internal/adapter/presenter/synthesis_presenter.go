package presenter

import (
	"github.com/johnquangdev/complexchaos/internal/adapter/dto/synthesis"
	"github.com/johnquangdev/complexchaos/internal/domain/entities"
	synthesisUsecase "github.com/johnquangdev/complexchaos/internal/usecase/synthesis"
)

// ToSynthesisResponse converts a Synthesis entity to SynthesisResponse DTO
func ToSynthesisResponse(s *entities.Synthesis) *synthesis.SynthesisResponse {
	if s == nil {
		return nil
	}

	response := &synthesis.SynthesisResponse{
		ID:         s.ID.String(),
		SessionID:  s.SessionID.String(),
		Version:    s.Version,
		Content:    s.Content,
		ModelUsed:  s.ModelUsed,
		TokenCount: s.TokenCount,
		Metadata:   s.Metadata.Data(),
		CreatedAt:  s.CreatedAt,
	}

	for i := range s.Critiques {
		response.Critiques = append(response.Critiques, ToCritiqueResponse(&s.Critiques[i]))
	}

	return response
}

// ToSynthesisListResponse converts syntheses in the given order
func ToSynthesisListResponse(list []*entities.Synthesis) []*synthesis.SynthesisResponse {
	out := make([]*synthesis.SynthesisResponse, len(list))
	for i, s := range list {
		out[i] = ToSynthesisResponse(s)
	}
	return out
}

// ToCritiqueResponse converts a Critique entity to CritiqueResponse DTO
func ToCritiqueResponse(c *entities.Critique) *synthesis.CritiqueResponse {
	if c == nil {
		return nil
	}
	response := &synthesis.CritiqueResponse{
		ID:            c.ID.String(),
		SynthesisID:   c.SynthesisID.String(),
		StakeholderID: c.StakeholderID.String(),
		Content:       c.Content,
		CreatedAt:     c.CreatedAt,
	}
	if c.Stakeholder != nil {
		response.Role = string(c.Stakeholder.Role)
	}
	return response
}

// ToGenerateResponse converts a workflow result
func ToGenerateResponse(r *synthesisUsecase.Result) *synthesis.GenerateResponse {
	if r == nil {
		return nil
	}
	return &synthesis.GenerateResponse{
		Synthesis: ToSynthesisResponse(r.Synthesis),
		Usage: synthesis.UsageResponse{
			PromptTokens:     r.Usage.PromptTokens,
			CompletionTokens: r.Usage.CompletionTokens,
			TotalTokens:      r.Usage.TotalTokens,
		},
		EstimatedCost: r.EstimatedCost,
	}
}
