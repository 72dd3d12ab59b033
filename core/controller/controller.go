package controller

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"booking-insights/core/errors"
	"booking-insights/core/logger"

	"github.com/labstack/echo/v4"
)

// Response types
type (
	SuccessResponse struct {
		Status    int       `json:"status"`
		Message   string    `json:"message"`
		Data      any       `json:"data,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}

	ErrorResponse struct {
		Status    string           `json:"status"`
		Code      errors.ErrorCode `json:"code"`
		Message   string           `json:"message"`
		Details   any              `json:"details,omitempty"`
		Timestamp time.Time        `json:"timestamp"`
	}
)

const genericUpstreamMessage = "the booking service is unavailable, please try again later"

type BaseController interface {
	BadRequest(appErrCode errors.ErrorCode, message string, details ...any) *echo.HTTPError
	Unauthorized(appErrCode errors.ErrorCode, message string, details ...any) *echo.HTTPError
	Forbidden(appErrCode errors.ErrorCode, message string, details ...any) *echo.HTTPError
	SuccessResponse(c echo.Context, data any, message string) error
	JSON(c echo.Context, payload any) error
	ErrorResponse(c echo.Context, err error) error
}

type responseHandler struct {
	log         *logger.Logger
	development bool
}

// NewBaseController builds the shared responder. In development mode error
// details (upstream status and body, causes) are included in responses.
func NewBaseController(log *logger.Logger, development bool) BaseController {
	return &responseHandler{log: logger.OrDefault(log), development: development}
}

func NewSuccessResponse(httpStatusCode int, data any, message string) *SuccessResponse {
	return &SuccessResponse{
		Status:    httpStatusCode,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func NewErrorResponse(httpStatusCode int, appErrCode errors.ErrorCode, message string, details ...any) *echo.HTTPError {
	return echo.NewHTTPError(httpStatusCode, newErrorBody(appErrCode, message, details...))
}

func newErrorBody(appErrCode errors.ErrorCode, message string, details ...any) *ErrorResponse {
	body := &ErrorResponse{
		Status:    "error",
		Code:      appErrCode,
		Message:   message,
		Timestamp: time.Now(),
	}
	if len(details) > 0 {
		body.Details = details[0]
	}
	return body
}

// StatusFor maps an error code to the HTTP status returned to clients.
func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrInvalidInput:
		return http.StatusBadRequest
	case errors.ErrUnauthorized, errors.ErrTokenExpired, errors.ErrInvalidTokenFormat,
		errors.ErrMissingAuthorizationHeader, errors.ErrInvalidState:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrUpstream, errors.ErrTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *responseHandler) BadRequest(appErrCode errors.ErrorCode, message string, details ...any) *echo.HTTPError {
	return NewErrorResponse(http.StatusBadRequest, appErrCode, message, details...)
}

func (h *responseHandler) Unauthorized(appErrCode errors.ErrorCode, message string, details ...any) *echo.HTTPError {
	return NewErrorResponse(http.StatusUnauthorized, appErrCode, message, details...)
}

func (h *responseHandler) Forbidden(appErrCode errors.ErrorCode, message string, details ...any) *echo.HTTPError {
	return NewErrorResponse(http.StatusForbidden, appErrCode, message, details...)
}

func (h *responseHandler) SuccessResponse(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, data, message))
}

func (h *responseHandler) JSON(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func (h *responseHandler) ErrorResponse(c echo.Context, err error) error {
	if stderrors.Is(err, context.Canceled) {
		// Client went away; nobody is reading the body.
		return c.NoContent(499)
	}

	ae := errors.As(err)
	if ae == nil {
		ae = errors.NewAppError(errors.ErrInternalServer, "internal server error", nil)
	}
	status := StatusFor(ae.Code)

	msg := ae.Message
	var details any
	switch ae.Code {
	case errors.ErrInvalidInput:
		details = ae.Details
	case errors.ErrUpstream, errors.ErrTimeout, errors.ErrConfig, errors.ErrShape, errors.ErrInternalServer:
		msg = genericUpstreamMessage
		if ae.Code == errors.ErrInternalServer {
			msg = "internal server error"
		}
		if h.development {
			details = developmentDetails(ae)
		}
	default:
		if h.development {
			details = ae.Details
		}
	}

	h.log.Error("BaseController:ErrorResponse",
		"status", status,
		"code", ae.Code,
		"message", ae.Message,
		"path", c.Path(),
		"error", ae.Err,
	)
	return c.JSON(status, newErrorBody(ae.Code, msg, details))
}

func developmentDetails(ae *errors.AppError) map[string]any {
	d := map[string]any{"message": ae.Message}
	if ae.Details != nil {
		d["details"] = ae.Details
	}
	if ae.Err != nil {
		d["cause"] = ae.Err.Error()
	}
	return d
}
