package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ActorKey is the context key for storing the acting user's ID
	ActorKey ContextKey = "actor"
)

// ExtractActor extracts the X-Actor-ID header and stores it in the request
// context. Every mutation is attributed to this actor in the audit trail.
//
// Usage:
//
//	e := echo.New()
//	e.Use(middleware.ExtractActor())
func ExtractActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := c.Request().Header.Get("X-Actor-ID")
			if actor != "" {
				c.Set(string(ActorKey), actor)
			}
			return next(c)
		}
	}
}

// GetActor retrieves the actor from the request context, empty if not set
func GetActor(c echo.Context) string {
	actor := c.Get(string(ActorKey))
	if actor == nil {
		return ""
	}
	return actor.(string)
}

// RequireActor ensures an actor is identified. Mutating endpoints call this
// so no audit entry is ever written without attribution.
func RequireActor(c echo.Context) (string, error) {
	actor := GetActor(c)
	if actor == "" {
		err := c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error": "X-Actor-ID header is required",
		})
		return "", err
	}
	return actor, nil
}
