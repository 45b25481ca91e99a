package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/complexchaos/errors"
	"github.com/johnquangdev/complexchaos/internal/adapter/dto/common"
	"github.com/johnquangdev/complexchaos/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/complexchaos/internal/usecase/errors"
	"github.com/johnquangdev/complexchaos/internal/usecase/participation"
	"github.com/johnquangdev/complexchaos/pkg/ai"
)

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized 200 response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response using provided logger
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := common.SuccessResponse{
		Code:    status,
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := ToAppError(err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", appErr.HTTPCode),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	return c.JSON(appErr.HTTPCode, errorBody(appErr))
}

func errorBody(appErr errors.AppError) common.ErrorResponse {
	body := common.ErrorResponse{
		Code:    appErr.Code.String(),
		Message: appErr.Message,
		Details: appErr.Details,
	}
	// Raw causes of server-side failures stay in the logs
	if appErr.Raw != nil && appErr.HTTPCode < http.StatusInternalServerError {
		body.Info = appErr.Raw.Error()
	}
	return body
}

// ToAppError maps usecase, provider and integration errors to an AppError
func ToAppError(err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var notFound *usecaseErrors.NotFoundError
	if stdErrors.As(err, &notFound) {
		switch notFound.Resource {
		case "session":
			return errors.ErrSessionNotFound(notFound.ID)
		case "stakeholder":
			return errors.ErrStakeholderNotFound(notFound.ID)
		case "synthesis":
			return errors.ErrSynthesisNotFound(notFound.ID)
		}
		return errors.ErrNotFound(notFound.Resource)
	}

	var validation *usecaseErrors.ValidationError
	if stdErrors.As(err, &validation) {
		switch {
		case stdErrors.Is(err, usecaseErrors.ErrNoSubmissions):
			return errors.ErrNoSubmissions(validation.Detail)
		case stdErrors.Is(err, usecaseErrors.ErrNoCritiques):
			return errors.ErrNoCritiques(validation.Detail)
		case stdErrors.Is(err, usecaseErrors.ErrAttachmentsDisabled):
			return errors.ErrAttachmentsUnavailable(validation.Detail)
		}
		return errors.ErrInvalidArgument(validation.Error())
	}

	if stdErrors.Is(err, usecaseErrors.ErrSynthesisInProgress) {
		return errors.AppError{
			Raw:      err,
			HTTPCode: http.StatusConflict,
			Code:     errors.ErrorCode_SYNTHESIS_IN_PROGRESS,
			Message:  "A synthesis is already being generated for this session",
		}
	}
	if stdErrors.Is(err, entities.ErrSynthesisVersionConflict) {
		return errors.ErrConflict("Synthesis version was taken concurrently, retry the request")
	}

	if ai.IsTimeout(err) {
		return errors.ErrAIUpstreamTimeout(err)
	}
	var upstream *ai.UpstreamError
	if stdErrors.As(err, &upstream) {
		if upstream.Op == ai.OpStream {
			return errors.ErrAIStreamFailed(err)
		}
		return errors.ErrAICompletionFailed(err)
	}

	var transcription *participation.TranscriptionError
	if stdErrors.As(err, &transcription) {
		return errors.ErrAITranscriptionFailed(err)
	}
	var storage *participation.StorageError
	if stdErrors.As(err, &storage) {
		return errors.ErrStorageFailed(storage.Op, err)
	}

	return errors.ErrInternal(err)
}

// parseID reads a UUID path parameter
func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("invalid " + name + ": must be a UUID")
	}
	return id, nil
}

// bindAndValidate binds the request body into req and validates it
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload(err)
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidPayload(err)
	}
	return nil
}
