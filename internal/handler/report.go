package handler

import (
    "net/http" // HTTP status codes
    "strconv"  // query parameter parsing

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hospital-bed-management/internal/repository"
)

// ReportHandler serves the read-only ward dashboards.  These routes
// sit behind the response cache middleware; a few seconds of staleness
// is acceptable for dashboards, and the cache keeps report queries off
// the database during shift handover spikes.
type ReportHandler struct {
    Reports *repository.ReportRepo
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reports *repository.ReportRepo) *ReportHandler {
    if reports == nil {
        panic("nil repository passed to NewReportHandler")
    }
    return &ReportHandler{Reports: reports}
}

// Occupancy handles GET /v1/reports/occupancy: bed counts by status
// plus a per-floor occupancy breakdown.
func (h *ReportHandler) Occupancy(c echo.Context) error {
    sum, err := h.Reports.Occupancy(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, sum)
}

// Turnover handles GET /v1/reports/turnover?days=N: releases and
// average length of stay over a trailing window, 7 days by default.
func (h *ReportHandler) Turnover(c echo.Context) error {
    days := 7
    if raw := c.QueryParam("days"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n <= 0 || n > 365 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be between 1 and 365"})
        }
        days = n
    }
    sum, err := h.Reports.Turnover(c.Request().Context(), days)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, sum)
}

// Attention handles GET /v1/reports/attention: beds waiting on
// housekeeping or maintenance, longest-waiting first.
func (h *ReportHandler) Attention(c echo.Context) error {
    items, err := h.Reports.AttentionQueue(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
