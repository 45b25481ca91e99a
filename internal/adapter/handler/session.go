package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/complexchaos/errors"
	"github.com/johnquangdev/complexchaos/internal/adapter/dto/common"
	"github.com/johnquangdev/complexchaos/internal/adapter/dto/session"
	"github.com/johnquangdev/complexchaos/internal/adapter/presenter"
	"github.com/johnquangdev/complexchaos/internal/domain/entities"
	"github.com/johnquangdev/complexchaos/internal/usecase/participation"
)

// Session handles session, stakeholder and submission requests
type Session struct {
	service participation.Service
	logger  *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service participation.Service, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		service: service,
		logger:  logger,
	}
}

// CreateSession handles POST /sessions
// @Summary      Create a session
// @Description  Creates a deliberation session with its initial stakeholders
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        request  body      session.CreateSessionRequest  true  "Session creation request"
// @Success      201      {object}  session.SessionResponse
// @Failure      400      {object}  common.ErrorResponse
// @Router       /sessions [post]
func (h *Session) CreateSession(c echo.Context) error {
	var req session.CreateSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	input := participation.CreateSessionInput{
		Title:         req.Title,
		Description:   req.Description,
		Type:          entities.SessionType(req.Type),
		FacilitatorID: req.FacilitatorID,
	}
	for _, st := range req.Stakeholders {
		input.Stakeholders = append(input.Stakeholders, participation.StakeholderInput{
			Name:  st.Name,
			Email: st.Email,
			Role:  entities.StakeholderRole(st.Role),
		})
	}

	created, err := h.service.CreateSession(c.Request().Context(), input)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToSessionResponse(created))
}

// GetSession handles GET /sessions/:id
// @Summary      Get a session
// @Description  Returns the session with stakeholders, submissions and the latest synthesis
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID (UUID)"
// @Success      200  {object}  session.SessionResponse
// @Failure      404  {object}  common.ErrorResponse
// @Router       /sessions/{id} [get]
func (h *Session) GetSession(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	found, err := h.service.GetSession(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(found))
}

// UpdateStatus handles PATCH /sessions/:id/status
func (h *Session) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req session.UpdateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	updated, err := h.service.UpdateStatus(c.Request().Context(), id, entities.SessionStatus(req.Status))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(updated))
}

// AddStakeholder handles POST /sessions/:id/stakeholders
func (h *Session) AddStakeholder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req session.StakeholderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	stakeholder, err := h.service.AddStakeholder(c.Request().Context(), id, participation.StakeholderInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  entities.StakeholderRole(req.Role),
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToStakeholderResponse(stakeholder))
}

// SubmitPerspective handles POST /sessions/:id/submissions
// @Summary      Submit a perspective
// @Tags         Submissions
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Session ID (UUID)"
// @Param        request  body      session.SubmitPerspectiveRequest  true  "Perspective"
// @Success      201      {object}  session.SubmissionResponse
// @Failure      400      {object}  common.ErrorResponse
// @Failure      404      {object}  common.ErrorResponse
// @Router       /sessions/{id}/submissions [post]
func (h *Session) SubmitPerspective(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req session.SubmitPerspectiveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	submission, err := h.service.SubmitPerspective(c.Request().Context(), id, participation.PerspectiveInput{
		StakeholderID: uuid.MustParse(req.StakeholderID),
		Content:       req.Content,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToSubmissionResponse(submission))
}

// UploadSubmission handles POST /sessions/:id/submissions/upload (multipart)
// @Summary      Submit a document or recording
// @Tags         Submissions
// @Accept       multipart/form-data
// @Produce      json
// @Param        id              path      string  true  "Session ID (UUID)"
// @Param        stakeholder_id  formData  string  true  "Stakeholder ID (UUID)"
// @Param        type            formData  string  true  "document or audio"
// @Param        file            formData  file    true  "Attachment"
// @Success      201  {object}  session.SubmissionResponse
// @Failure      503  {object}  common.ErrorResponse  "Attachments not configured"
// @Router       /sessions/{id}/submissions/upload [post]
func (h *Session) UploadSubmission(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	req := session.UploadSubmissionRequest{
		StakeholderID: c.FormValue("stakeholder_id"),
		Type:          c.FormValue("type"),
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}
	defer file.Close()

	submission, err := h.service.SubmitAttachment(c.Request().Context(), id, participation.AttachmentInput{
		StakeholderID: uuid.MustParse(req.StakeholderID),
		Type:          entities.SubmissionType(req.Type),
		Filename:      fileHeader.Filename,
		ContentType:   fileHeader.Header.Get(echo.HeaderContentType),
		Size:          fileHeader.Size,
		Reader:        file,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToSubmissionResponse(submission))
}

// Diversity handles GET /sessions/:id/diversity
func (h *Session) Diversity(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	d, err := h.service.Diversity(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToDiversityResponse(d))
}

// ListSyntheses handles GET /sessions/:id/syntheses
func (h *Session) ListSyntheses(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	list, err := h.service.ListSyntheses(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, common.ListResponse{
		Items: presenter.ToSynthesisListResponse(list),
		Total: len(list),
	})
}
