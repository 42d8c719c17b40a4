package handler

import (
    "errors"   // errors.Is comparisons against repository sentinels
    "net/http" // HTTP status codes
    "strings"  // trimming request fields

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hospital-bed-management/internal/engine"
    "github.com/iliyamo/hospital-bed-management/internal/model"
    "github.com/iliyamo/hospital-bed-management/internal/repository"
)

// AssignmentHandler serves the patient-to-bed workflows: assign,
// transfer and release.  These are the only endpoints through which a
// bed can become occupied.  The heavy lifting, locking and event
// publication live in the assignment engine; the handler binds
// requests and maps domain errors to HTTP responses.
type AssignmentHandler struct {
    Engine      *engine.AssignmentEngine    // assign / transfer / release workflows
    Assignments *repository.AssignmentRepo  // read-side assignment lookups
}

// NewAssignmentHandler constructs an AssignmentHandler.  All
// dependencies must be non-nil.
func NewAssignmentHandler(eng *engine.AssignmentEngine, assignments *repository.AssignmentRepo) *AssignmentHandler {
    if eng == nil || assignments == nil {
        panic("nil dependency passed to NewAssignmentHandler")
    }
    return &AssignmentHandler{Engine: eng, Assignments: assignments}
}

// Assign handles POST /v1/assignments.  The body names an active
// admission and a target bed; on success the bed is occupied and the
// new assignment is returned.  Assigning an admission that already
// has a bed moves it, vacating the old bed to cleaning atomically.
func (h *AssignmentHandler) Assign(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        AdmissionID uint64 `json:"admission_id"` // active admission to place
        BedID       uint64 `json:"bed_id"`       // target bed
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.AdmissionID == 0 || body.BedID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "admission_id and bed_id are required"})
    }
    res, err := h.Engine.Assign(c.Request().Context(), body.AdmissionID, body.BedID, userID)
    if err != nil {
        return domainError(c, err)
    }
    return c.JSON(http.StatusCreated, res)
}

// Transfer handles POST /v1/assignments/transfer and moves an
// admission from its current bed to a new one in a single unit of
// work.  The old bed goes to cleaning, the new one to occupied.
func (h *AssignmentHandler) Transfer(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        AdmissionID uint64 `json:"admission_id"` // admission being moved
        NewBedID    uint64 `json:"new_bed_id"`   // destination bed
        Reason      string `json:"reason"`       // why the patient is moved
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.AdmissionID == 0 || body.NewBedID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "admission_id and new_bed_id are required"})
    }
    res, err := h.Engine.Transfer(c.Request().Context(), body.AdmissionID, body.NewBedID, userID, strings.TrimSpace(body.Reason))
    if err != nil {
        return domainError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// Release handles POST /v1/assignments/release.  It discharges the
// admission, closes its assignment, sends the bed to cleaning and
// reports the computed length of stay in whole days.
func (h *AssignmentHandler) Release(c echo.Context) error {
    if _, err := getUserID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        AdmissionID      uint64 `json:"admission_id"`      // admission to discharge
        Reason           string `json:"reason"`            // optional release note
        DischargeType    string `json:"discharge_type"`    // routine, transfer_out, ama, deceased
        DischargeSummary string `json:"discharge_summary"` // clinical summary text
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.AdmissionID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "admission_id is required"})
    }
    dischargeType := strings.ToLower(strings.TrimSpace(body.DischargeType))
    if dischargeType == "" {
        dischargeType = model.DischargeRoutine
    }
    res, err := h.Engine.Release(c.Request().Context(), body.AdmissionID,
        strings.TrimSpace(body.Reason), dischargeType, strings.TrimSpace(body.DischargeSummary))
    if err != nil {
        return domainError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// AdmissionAssignments handles GET /v1/admissions/:id/assignments and
// returns every assignment the admission has had, newest first,
// including the released ones.
func (h *AssignmentHandler) AdmissionAssignments(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid admission id"})
    }
    items, err := h.Assignments.HistoryByAdmission(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    // the current assignment, when one exists, is surfaced separately
    var current *model.Assignment
    if cur, err := h.Assignments.CurrentByAdmission(c.Request().Context(), id); err == nil {
        current = cur
    } else if !errors.Is(err, repository.ErrAssignmentNotFound) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "current": current})
}
