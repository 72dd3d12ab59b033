package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"booking-insights/core/middleware"
	"booking-insights/modules/booking"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// NewEcho builds the HTTP handler with every module route registered.
func NewEcho(app *App) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	mw := middleware.NewMiddleware(app.Signer, app.Log)
	e.Use(echomw.Recover())
	e.Use(mw.RequestID())
	e.Use(mw.RequestLogger())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if err := booking.Init(e, mw, app.Config, app.Credential.TokenService, app.Log); err != nil {
		return nil, err
	}
	return e, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, app *App) error {
	e, err := NewEcho(app)
	if err != nil {
		return err
	}

	cfg := app.Config.Server
	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Log.Info("Server:Run:Listening", "addr", srv.Addr, "env", app.Config.App.Env)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.Log.Info("Server:Run:ShuttingDown")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	app.Log.Info("Server:Run:Stopped")
	return nil
}
