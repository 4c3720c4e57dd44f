package http

import "github.com/labstack/echo/v4"

// Handler defines HTTP route registration interface. Routes are mounted on a
// group that already carries the API middleware.
type Handler interface {
	RegisterRoutes(g *echo.Group)
}
