package booking

import (
	"fmt"

	"booking-insights/core/config"
	"booking-insights/core/controller"
	"booking-insights/core/logger"
	"booking-insights/core/middleware"
	"booking-insights/modules/booking/client"
	bookingController "booking-insights/modules/booking/controller"
	"booking-insights/modules/booking/query"
	"booking-insights/modules/booking/router"
	bookingService "booking-insights/modules/booking/service"
	credentialService "booking-insights/modules/credential/service"

	"github.com/labstack/echo/v4"
)

// NewService builds the booking service without any HTTP surface, for the CLI.
func NewService(cfg *config.Config, tokens credentialService.TokenServiceInterface, log *logger.Logger) (bookingService.BookingService, error) {
	calClient, err := client.NewClient(cfg.CalCom, nil, log)
	if err != nil {
		return nil, fmt.Errorf("booking client: %w", err)
	}
	return bookingService.NewBookingService(tokens, calClient, query.NewCodec(), cfg.CalCom.TopUpdatedTake, log), nil
}

func Init(e *echo.Echo, mw *middleware.Middleware, cfg *config.Config, tokens credentialService.TokenServiceInterface, log *logger.Logger) error {
	svc, err := NewService(cfg, tokens, log)
	if err != nil {
		return err
	}
	base := controller.NewBaseController(log, cfg.IsDevelopment())
	ctrl := bookingController.NewBookingController(base, svc, query.NewCodec(), log)
	router.NewBookingRouter(ctrl).Setup(e, mw)
	return nil
}
