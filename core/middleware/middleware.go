package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"booking-insights/core/constants"
	"booking-insights/core/controller"
	appErrors "booking-insights/core/errors"
	"booking-insights/core/logger"
	"booking-insights/core/utils"

	"github.com/labstack/echo/v4"
)

// TokenValidator is satisfied by *utils.SessionSigner.
type TokenValidator interface {
	Validate(token string) (*utils.TokenClaims, error)
}

type Middleware struct {
	validator TokenValidator
	log       *logger.Logger
}

func NewMiddleware(validator TokenValidator, log *logger.Logger) *Middleware {
	return &Middleware{validator: validator, log: logger.OrDefault(log)}
}

// RequestID reuses an inbound X-Request-ID or assigns a new one.
func (m *Middleware) RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(constants.HeaderRequestID)
			if id == "" {
				id = utils.GenerateRequestID()
			}
			c.Set(constants.ContextRequestID, id)
			c.Response().Header().Set(constants.HeaderRequestID, id)
			return next(c)
		}
	}
}

func (m *Middleware) RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			m.log.Info("Middleware:Request",
				"request_id", c.Get(constants.ContextRequestID),
				"method", req.Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}

// AuthMiddleware validates the session bearer token and stores its claims
// under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return controller.NewErrorResponse(http.StatusUnauthorized, appErrors.ErrMissingAuthorizationHeader, "missing authorization header")
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return controller.NewErrorResponse(http.StatusUnauthorized, appErrors.ErrInvalidTokenFormat, "authorization header must be a bearer token")
			}

			claims, err := m.validator.Validate(strings.TrimSpace(token))
			if err != nil {
				m.log.Warn("Middleware:AuthMiddleware:Validate:Error", "request_id", c.Get(constants.ContextRequestID), "error", err)
				if errors.Is(err, utils.ErrTokenExpired) {
					return controller.NewErrorResponse(http.StatusUnauthorized, appErrors.ErrTokenExpired, "session expired")
				}
				return controller.NewErrorResponse(http.StatusUnauthorized, appErrors.ErrUnauthorized, "invalid session")
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}
