package router

import (
	"booking-insights/core/middleware"
	"booking-insights/modules/booking/controller"

	"github.com/labstack/echo/v4"
)

type BookingRouter struct {
	Controller *controller.BookingController
}

func NewBookingRouter(ctrl *controller.BookingController) *BookingRouter {
	return &BookingRouter{Controller: ctrl}
}

func (r *BookingRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	priv := v1.Group("/private", mw.AuthMiddleware())

	priv.GET("/bookings", r.Controller.ListBookings)
	priv.GET("/users/:user_id/bookings", r.Controller.ListUserBookings)
	priv.GET("/dashboard", r.Controller.Dashboard)
}
