package presenter

import (
	"github.com/johnquangdev/complexchaos/internal/adapter/dto/session"
	"github.com/johnquangdev/complexchaos/internal/domain/entities"
	"github.com/johnquangdev/complexchaos/internal/usecase/participation"
)

// ToSessionResponse converts a Session entity to SessionResponse DTO
func ToSessionResponse(s *entities.Session) *session.SessionResponse {
	if s == nil {
		return nil
	}

	response := &session.SessionResponse{
		ID:            s.ID.String(),
		Title:         s.Title,
		Description:   s.Description,
		Type:          string(s.Type),
		Status:        string(s.Status),
		FacilitatorID: s.FacilitatorID,
		Stakeholders:  make([]*session.StakeholderResponse, 0, len(s.Stakeholders)),
		Submissions:   make([]*session.SubmissionResponse, 0, len(s.Submissions)),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}

	for i := range s.Stakeholders {
		response.Stakeholders = append(response.Stakeholders, ToStakeholderResponse(&s.Stakeholders[i]))
	}
	for i := range s.Submissions {
		response.Submissions = append(response.Submissions, ToSubmissionResponse(&s.Submissions[i]))
	}

	// Include the latest synthesis if loaded
	if latest := s.LatestSynthesis(); latest != nil {
		response.LatestSynthesis = ToSynthesisResponse(latest)
	}

	return response
}

// ToStakeholderResponse converts a Stakeholder entity to StakeholderResponse DTO
func ToStakeholderResponse(st *entities.Stakeholder) *session.StakeholderResponse {
	if st == nil {
		return nil
	}
	return &session.StakeholderResponse{
		ID:        st.ID.String(),
		SessionID: st.SessionID.String(),
		Name:      st.Name,
		Email:     st.Email,
		Role:      string(st.Role),
		CreatedAt: st.CreatedAt,
	}
}

// ToSubmissionResponse converts a Submission entity to SubmissionResponse DTO
func ToSubmissionResponse(sub *entities.Submission) *session.SubmissionResponse {
	if sub == nil {
		return nil
	}
	return &session.SubmissionResponse{
		ID:            sub.ID.String(),
		SessionID:     sub.SessionID.String(),
		StakeholderID: sub.StakeholderID.String(),
		Role:          string(sub.Role()),
		Content:       sub.Content,
		Type:          string(sub.Type),
		FileURL:       sub.FileURL,
		CreatedAt:     sub.CreatedAt,
	}
}

// ToDiversityResponse converts the diversity summary
func ToDiversityResponse(d *participation.Diversity) *session.DiversityResponse {
	if d == nil {
		return nil
	}
	return &session.DiversityResponse{
		Index:           d.Index,
		SubmissionCount: d.SubmissionCount,
		TokenEstimate:   d.TokenEstimate,
	}
}
