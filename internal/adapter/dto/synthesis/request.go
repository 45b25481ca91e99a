package synthesis

// CritiqueRequest represents feedback on a synthesis
type CritiqueRequest struct {
	StakeholderID string `json:"stakeholder_id" validate:"required,uuid"`
	Content       string `json:"content" validate:"required,max=10000"`
}
