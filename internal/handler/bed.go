package handler

import (
    "errors"   // errors.Is comparisons against repository sentinels
    "net/http" // HTTP status codes
    "strconv"  // query parameter parsing
    "strings"  // trimming request fields

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hospital-bed-management/internal/engine"
    "github.com/iliyamo/hospital-bed-management/internal/repository"
)

// BedHandler serves bed lookup, lifecycle transitions and status
// history.  Occupancy is deliberately absent here: beds become
// occupied only through the assignment endpoints, and the state
// machine rejects occupied as a target regardless of the caller.
// JWT authentication and role validation have already run by the
// time any of these methods is invoked.
type BedHandler struct {
    Machine *engine.StateMachine      // validated lifecycle transitions
    Beds    *repository.BedRepo       // read-side bed lookups
    Logs    *repository.StatusLogRepo // append-only status history
}

// NewBedHandler constructs a BedHandler.  All dependencies must be
// non-nil.
func NewBedHandler(machine *engine.StateMachine, beds *repository.BedRepo, logs *repository.StatusLogRepo) *BedHandler {
    if machine == nil || beds == nil || logs == nil {
        panic("nil dependency passed to NewBedHandler")
    }
    return &BedHandler{Machine: machine, Beds: beds, Logs: logs}
}

// GetBed handles GET /v1/beds/:id and returns the bed together with
// its room and floor context.
func (h *BedHandler) GetBed(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bed id"})
    }
    detail, err := h.Beds.GetDetail(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrBedNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Bed not found."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, detail)
}

// ChangeStatus handles POST /v1/beds/:id/status.  The body carries the
// requested status and an optional reason; the state machine decides
// whether the transition is legal from the bed's current status.
func (h *BedHandler) ChangeStatus(c echo.Context) error {
    actorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bed id"})
    }
    var body struct {
        Status string `json:"status"` // requested target status
        Reason string `json:"reason"` // optional free-text reason
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    status := strings.ToLower(strings.TrimSpace(body.Status))
    if status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
    }
    detail, err := h.Machine.ApplyTransition(c.Request().Context(), id, status, strings.TrimSpace(body.Reason), actorID)
    if err != nil {
        return domainError(c, err)
    }
    return c.JSON(http.StatusOK, detail)
}

// ReportMaintenance handles POST /v1/beds/:id/maintenance.  Occupied
// beds cannot be flagged; the engine answers with an invalid
// transition in that case.
func (h *BedHandler) ReportMaintenance(c echo.Context) error {
    actorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bed id"})
    }
    var body struct {
        Reason string `json:"reason"` // what is broken
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    detail, err := h.Machine.MarkForMaintenance(c.Request().Context(), id, strings.TrimSpace(body.Reason), actorID)
    if err != nil {
        return domainError(c, err)
    }
    return c.JSON(http.StatusOK, detail)
}

// MarkCleaned handles POST /v1/beds/:id/cleaned and returns a bed in
// cleaning back to the available pool.
func (h *BedHandler) MarkCleaned(c echo.Context) error {
    actorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bed id"})
    }
    detail, err := h.Machine.MarkCleaned(c.Request().Context(), id, actorID)
    if err != nil {
        return domainError(c, err)
    }
    return c.JSON(http.StatusOK, detail)
}

// Reserve handles POST /v1/beds/:id/reserve and holds an available
// bed for an incoming admission.
func (h *BedHandler) Reserve(c echo.Context) error {
    actorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bed id"})
    }
    var body struct {
        Reason string `json:"reason"` // who or what the hold is for
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    detail, err := h.Machine.Reserve(c.Request().Context(), id, actorID, strings.TrimSpace(body.Reason))
    if err != nil {
        return domainError(c, err)
    }
    return c.JSON(http.StatusOK, detail)
}

// CancelReservation handles POST /v1/beds/:id/reserve/cancel.
func (h *BedHandler) CancelReservation(c echo.Context) error {
    actorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bed id"})
    }
    var body struct {
        Reason string `json:"reason"` // optional cancellation note
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    detail, err := h.Machine.CancelReservation(c.Request().Context(), id, actorID, strings.TrimSpace(body.Reason))
    if err != nil {
        return domainError(c, err)
    }
    return c.JSON(http.StatusOK, detail)
}

// History handles GET /v1/beds/:id/history and returns the bed's
// status-log entries newest first.  The optional limit query parameter
// caps the result; it defaults to 50.
func (h *BedHandler) History(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bed id"})
    }
    limit := 50
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n <= 0 || n > 500 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 500"})
        }
        limit = n
    }
    // a history request for a missing bed is a 404, not an empty list
    if _, err := h.Beds.GetByID(c.Request().Context(), id); err != nil {
        if errors.Is(err, repository.ErrBedNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Bed not found."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    items, err := h.Logs.HistoryByBed(c.Request().Context(), id, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// RecentChanges handles GET /v1/beds/status-changes and returns all
// status-log entries in the last N hours (default 24) across the whole
// ward, newest first.
func (h *BedHandler) RecentChanges(c echo.Context) error {
    hours := 24
    if raw := c.QueryParam("hours"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n <= 0 || n > 24*7 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "hours must be between 1 and 168"})
        }
        hours = n
    }
    items, err := h.Logs.RecentChanges(c.Request().Context(), hours)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
