package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightfinder/internal/render"
)

// Register mounts the page, API and asset routes. mw applies to the routes
// that reach the flight provider.
func (h *SearchHandler) Register(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.Renderer = h.renderer
	e.StaticFS("/static", render.Static())

	e.GET("/", h.Page)
	e.GET("/results", h.Page)
	e.POST("/search", h.Submit, mw...)

	api := e.Group("/api/v1")
	api.POST("/flights/search", h.SearchAPI, mw...)
	api.GET("/flights", h.Flights)
	api.GET("/session", h.Session)

	e.GET("/health", HealthHandler)
}
