package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	synthesisDTO "github.com/johnquangdev/complexchaos/internal/adapter/dto/synthesis"
	"github.com/johnquangdev/complexchaos/internal/adapter/presenter"
	"github.com/johnquangdev/complexchaos/internal/usecase/participation"
	"github.com/johnquangdev/complexchaos/internal/usecase/synthesis"
)

// Synthesis handles generation, refinement and critique requests
type Synthesis struct {
	synthesisService     synthesis.Service
	participationService participation.Service
	logger               *zap.Logger
}

// NewSynthesisHandler creates a new synthesis handler
func NewSynthesisHandler(synthesisService synthesis.Service, participationService participation.Service, logger *zap.Logger) *Synthesis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesis{
		synthesisService:     synthesisService,
		participationService: participationService,
		logger:               logger,
	}
}

// Generate handles POST /sessions/:id/syntheses
// @Summary      Generate a synthesis
// @Description  Produces the next synthesis version from every submission of the session
// @Tags         Syntheses
// @Produce      json
// @Param        id   path      string  true  "Session ID (UUID)"
// @Success      201  {object}  synthesis.GenerateResponse
// @Failure      404  {object}  common.ErrorResponse
// @Failure      409  {object}  common.ErrorResponse  "Synthesis already running"
// @Failure      422  {object}  common.ErrorResponse  "No submissions"
// @Failure      502  {object}  common.ErrorResponse  "Model provider failed"
// @Failure      504  {object}  common.ErrorResponse  "Model provider timed out"
// @Router       /sessions/{id}/syntheses [post]
func (h *Synthesis) Generate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.synthesisService.GenerateSynthesis(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToGenerateResponse(result))
}

// Refine handles POST /syntheses/:id/refine
// @Summary      Refine a synthesis
// @Description  Produces the next version from this synthesis and its critiques
// @Tags         Syntheses
// @Produce      json
// @Param        id   path      string  true  "Synthesis ID (UUID)"
// @Success      201  {object}  synthesis.GenerateResponse
// @Failure      422  {object}  common.ErrorResponse  "No critiques"
// @Router       /syntheses/{id}/refine [post]
func (h *Synthesis) Refine(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.synthesisService.RefineSynthesis(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToGenerateResponse(result))
}

// Stream handles POST /sessions/:id/syntheses/stream as server-sent events.
// Each fragment is sent as a "chunk" event; the stored synthesis follows as
// "done", or an "error" event once the stream has started.
func (h *Synthesis) Stream(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	res := c.Response()
	started := false
	start := func() {
		res.Header().Set(echo.HeaderContentType, "text/event-stream")
		res.Header().Set(echo.HeaderCacheControl, "no-cache")
		res.Header().Set("Connection", "keep-alive")
		res.Header().Set("X-Accel-Buffering", "no")
		res.WriteHeader(http.StatusOK)
		started = true
	}

	result, err := h.synthesisService.StreamSynthesis(c.Request().Context(), id, func(chunk string) error {
		if !started {
			start()
		}
		return writeEvent(res, "chunk", synthesisDTO.ChunkEvent{Content: chunk})
	})
	if err != nil {
		if !started {
			return HandleError(h.logger, c, err)
		}
		appErr := ToAppError(err)
		h.logger.Error("http.stream.error",
			zap.String("request_id", getRequestID(c)),
			zap.String("session_id", id.String()),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		)
		return writeEvent(res, "error", errorBody(appErr))
	}

	if !started {
		start()
	}
	return writeEvent(res, "done", presenter.ToGenerateResponse(result))
}

// writeEvent writes one SSE event and flushes it to the client
func writeEvent(res *echo.Response, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// GetSynthesis handles GET /syntheses/:id
func (h *Synthesis) GetSynthesis(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	found, err := h.participationService.GetSynthesis(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToSynthesisResponse(found))
}

// AddCritique handles POST /syntheses/:id/critiques
// @Summary      Critique a synthesis
// @Tags         Syntheses
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Synthesis ID (UUID)"
// @Param        request  body      synthesis.CritiqueRequest  true  "Critique"
// @Success      201      {object}  synthesis.CritiqueResponse
// @Router       /syntheses/{id}/critiques [post]
func (h *Synthesis) AddCritique(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req synthesisDTO.CritiqueRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	critique, err := h.participationService.AddCritique(c.Request().Context(), id, participation.CritiqueInput{
		StakeholderID: uuid.MustParse(req.StakeholderID),
		Content:       req.Content,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToCritiqueResponse(critique))
}
