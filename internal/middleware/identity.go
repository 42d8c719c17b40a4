package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a userID extraction function that pulls the
// subject stored in the Echo context by JWTAuth. When no staff member
// is authenticated, "guest" is returned.

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// userID extracts the staff identifier JWTAuth stored in context. It
// returns "guest" when no user is authenticated.
func userID(c echo.Context) string {
    v := c.Get("user_id")
    if v == nil {
        return "guest"
    }
    switch t := v.(type) {
    case string:
        if t != "" {
            return t
        }
    case float64:
        return fmt.Sprintf("%.0f", t)
    case uint64:
        return fmt.Sprintf("%d", t)
    }
    return "guest"
}
