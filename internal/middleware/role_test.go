package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func runWithRole(t *testing.T, mw echo.MiddlewareFunc, role interface{}) *httptest.ResponseRecorder {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if role != nil {
        c.Set("role", role)
    }
    handler := mw(func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    })
    require.NoError(t, handler(c))
    return rec
}

func TestRequireRoleAllows(t *testing.T) {
    mw := RequireRole("ADMIN", "DOCTOR", "NURSE")
    for _, role := range []string{"ADMIN", "DOCTOR", "NURSE"} {
        rec := runWithRole(t, mw, role)
        assert.Equal(t, http.StatusOK, rec.Code, role)
    }
}

func TestRequireRoleForbids(t *testing.T) {
    mw := RequireRole("ADMIN")
    rec := runWithRole(t, mw, "HOUSEKEEPING")
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleMissingRole(t *testing.T) {
    mw := RequireRole("ADMIN")
    rec := runWithRole(t, mw, nil)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleWrongType(t *testing.T) {
    mw := RequireRole("ADMIN")
    rec := runWithRole(t, mw, 42)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}
