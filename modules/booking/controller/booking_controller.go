package controller

import (
	"booking-insights/core/constants"
	"booking-insights/core/controller"
	"booking-insights/core/errors"
	"booking-insights/core/logger"
	"booking-insights/core/utils"
	"booking-insights/modules/booking/dto"
	"booking-insights/modules/booking/query"
	"booking-insights/modules/booking/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingController struct {
	controller.BaseController
	BookingService service.BookingService
	codec          *query.Codec
	log            *logger.Logger
}

func NewBookingController(base controller.BaseController, bookingSvc service.BookingService, codec *query.Codec, log *logger.Logger) *BookingController {
	return &BookingController{
		BaseController: base,
		BookingService: bookingSvc,
		codec:          codec,
		log:            logger.OrDefault(log),
	}
}

// ListBookings returns the session user's meetings.
func (b *BookingController) ListBookings(c echo.Context) error {
	userID, err := b.getUserIDFromContext(c)
	if err != nil {
		return err
	}
	return b.listFor(c, userID)
}

// ListUserBookings returns meetings for :user_id, which must be the session user.
func (b *BookingController) ListUserBookings(c echo.Context) error {
	userID, err := b.getUserIDFromContext(c)
	if err != nil {
		return err
	}

	requested, parseErr := uuid.Parse(c.Param("user_id"))
	if parseErr != nil {
		return b.BadRequest(errors.ErrInvalidInput, "user_id must be a UUID")
	}
	if requested != userID {
		b.log.Warn("BookingController:ListUserBookings:Forbidden", "user_id", userID, "requested", requested)
		return b.Forbidden(errors.ErrForbidden, "cannot read another user's bookings")
	}
	return b.listFor(c, userID)
}

func (b *BookingController) listFor(c echo.Context, userID uuid.UUID) error {
	q, appErr := b.codec.Parse(c.QueryParams())
	if appErr != nil {
		return b.ErrorResponse(c, appErr)
	}

	b.log.Info("BookingController:ListBookings:Start", "user_id", userID)
	result, appErr := b.BookingService.ListMeetings(c.Request().Context(), userID, q)
	if appErr != nil {
		return b.ErrorResponse(c, appErr)
	}
	return b.JSON(c, result)
}

// Dashboard returns meetings with summary statistics, falling back to the
// most recently updated bookings when the query matches nothing.
func (b *BookingController) Dashboard(c echo.Context) error {
	userID, err := b.getUserIDFromContext(c)
	if err != nil {
		return err
	}

	q, appErr := b.codec.Parse(c.QueryParams())
	if appErr != nil {
		return b.ErrorResponse(c, appErr)
	}

	b.log.Info("BookingController:Dashboard:Start", "user_id", userID)
	result, appErr := b.BookingService.Dashboard(c.Request().Context(), userID, q)
	if appErr != nil {
		return b.ErrorResponse(c, appErr)
	}
	return b.SuccessResponse(c, result, dashboardMessage(result))
}

func dashboardMessage(res *dto.DashboardResponse) string {
	switch {
	case res.Fallback && res.FallbackError != nil:
		return "no bookings matched and recent bookings could not be loaded"
	case res.Fallback:
		return "no bookings matched, showing recently updated bookings"
	default:
		return "ok"
	}
}

func (b *BookingController) getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	claims, ok := c.Get(constants.ContextTokenData).(*utils.TokenClaims)
	if !ok || claims == nil {
		return uuid.Nil, b.Unauthorized(errors.ErrUnauthorized, "unauthorized")
	}
	return claims.UserID, nil
}

