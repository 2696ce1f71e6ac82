package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"lexio/internal/handler"
	"lexio/internal/service"
)

func NewRouter(
	translationHandler *handler.TranslationHandler,
	workflowHandler *handler.WorkflowHandler,
	authHandler *handler.AuthHandler,
	authService service.AuthService,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(RequestLoggerMiddleware())

	api := e.Group("/api")
	authHandler.RegisterRoutes(api)
	translationHandler.RegisterRoutes(api)

	admin := api.Group("", AdminAuthMiddleware(authService))
	translationHandler.RegisterAdminRoutes(admin)
	workflowHandler.RegisterRoutes(admin)

	return e
}
