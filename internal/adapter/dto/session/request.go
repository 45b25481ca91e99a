package session

// StakeholderRequest registers a stakeholder
type StakeholderRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Role  string `json:"role" validate:"required,stakeholder_role"`
}

// CreateSessionRequest represents the request to create a session
type CreateSessionRequest struct {
	Title         string               `json:"title" validate:"required,min=1,max=255"`
	Description   *string              `json:"description,omitempty"`
	Type          string               `json:"type" validate:"required,session_type"`
	FacilitatorID *string              `json:"facilitator_id,omitempty" validate:"omitempty,max=255"`
	Stakeholders  []StakeholderRequest `json:"stakeholders,omitempty" validate:"omitempty,dive"`
}

// UpdateStatusRequest moves a session to another status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,session_status"`
}

// SubmitPerspectiveRequest is a text submission
type SubmitPerspectiveRequest struct {
	StakeholderID string `json:"stakeholder_id" validate:"required,uuid"`
	Content       string `json:"content" validate:"required,max=20000"`
}

// UploadSubmissionRequest holds the form fields of a multipart upload.
// The file itself is read from the "file" part.
type UploadSubmissionRequest struct {
	StakeholderID string `form:"stakeholder_id" validate:"required,uuid"`
	Type          string `form:"type" validate:"required,oneof=document audio"`
}
