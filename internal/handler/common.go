package handler // handler defines http handlers

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hospital-bed-management/internal/engine"
)

// getUserID extracts the staff user id from echo.Context and converts
// it to uint64.  JWTAuth stores the token subject under "user_id";
// the claim type depends on how the identity service encoded it, so
// several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// domainError translates an engine error kind into a stable HTTP
// response.  Internal errors were already logged with their cause by
// the engine; only the generic message leaves the process.
func domainError(c echo.Context, err error) error {
    var e *engine.Error
    if !errors.As(err, &e) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    status := http.StatusInternalServerError
    switch e.Kind {
    case engine.KindNotFound:
        status = http.StatusNotFound
    case engine.KindInvalidTransition:
        status = http.StatusUnprocessableEntity
    case engine.KindConflict:
        status = http.StatusConflict
    }
    return c.JSON(status, echo.Map{"error": e.Message, "kind": e.Kind.String()})
}
