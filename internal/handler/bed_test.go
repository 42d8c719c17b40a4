package handler

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/hospital-bed-management/internal/engine"
    "github.com/iliyamo/hospital-bed-management/internal/repository"
)

func setupBedHandler(t *testing.T) (*BedHandler, sqlmock.Sqlmock, func()) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    beds := repository.NewBedRepo(db)
    logs := repository.NewStatusLogRepo(db)
    machine := engine.NewStateMachine(db, beds, logs, nil, zerolog.Nop())
    return NewBedHandler(machine, beds, logs), mock, func() { db.Close() }
}

func bedRequest(method, target string, userID interface{}) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(method, target, nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if userID != nil {
        c.Set("user_id", userID)
        c.Set("role", "NURSE")
    }
    return c, rec
}

func TestGetBed(t *testing.T) {
    h, mock, done := setupBedHandler(t)
    defer done()

    rows := sqlmock.NewRows([]string{"id", "room_id", "room_number", "floor_number", "ward", "bed_number", "bed_type", "status", "maintenance_reported_at", "last_cleaned_at"}).
        AddRow(4, 3, "304-B", 3, "GENERAL", 2, "ICU", "occupied", nil, time.Now())
    mock.ExpectQuery("JOIN rooms r ON r.id = b.room_id").
        WithArgs(int64(4)).
        WillReturnRows(rows)

    c, rec := bedRequest(http.MethodGet, "/v1/beds/4", nil)
    c.SetParamNames("id")
    c.SetParamValues("4")

    require.NoError(t, h.GetBed(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"room_number":"304-B"`)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBedNotFound(t *testing.T) {
    h, mock, done := setupBedHandler(t)
    defer done()

    mock.ExpectQuery("JOIN rooms r ON r.id = b.room_id").
        WithArgs(int64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    c, rec := bedRequest(http.MethodGet, "/v1/beds/99", nil)
    c.SetParamNames("id")
    c.SetParamValues("99")

    require.NoError(t, h.GetBed(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBedInvalidID(t *testing.T) {
    h, _, done := setupBedHandler(t)
    defer done()

    c, rec := bedRequest(http.MethodGet, "/v1/beds/abc", nil)
    c.SetParamNames("id")
    c.SetParamValues("abc")

    require.NoError(t, h.GetBed(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryRejectsBadLimit(t *testing.T) {
    h, _, done := setupBedHandler(t)
    defer done()

    c, rec := bedRequest(http.MethodGet, "/v1/beds/4/history?limit=0", nil)
    c.SetParamNames("id")
    c.SetParamValues("4")

    require.NoError(t, h.History(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkCleanedRequiresIdentity(t *testing.T) {
    h, _, done := setupBedHandler(t)
    defer done()

    // no user_id in context means the request never reaches the engine
    c, rec := bedRequest(http.MethodPost, "/v1/beds/4/cleaned", nil)
    c.SetParamNames("id")
    c.SetParamValues("4")

    require.NoError(t, h.MarkCleaned(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// An invalid transition surfaces as 422 with the engine's message.
func TestChangeStatusInvalidTransition(t *testing.T) {
    h, mock, done := setupBedHandler(t)
    defer done()

    now := time.Now()
    rows := sqlmock.NewRows([]string{"id", "room_id", "bed_number", "bed_type", "status", "maintenance_reported_at", "last_cleaned_at", "created_at", "updated_at"}).
        AddRow(4, 3, 2, "ICU", "available", nil, nil, now, now)
    mock.ExpectBegin()
    mock.ExpectQuery("FROM beds WHERE id = (.+) FOR UPDATE").
        WithArgs(int64(4)).
        WillReturnRows(rows)
    mock.ExpectRollback()

    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/beds/4/status",
        jsonBody(`{"status":"occupied"}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uint64(7))
    c.SetParamNames("id")
    c.SetParamValues("4")

    require.NoError(t, h.ChangeStatus(c))
    assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
    assert.Contains(t, rec.Body.String(), "Cannot change bed status from available to occupied.")
}
