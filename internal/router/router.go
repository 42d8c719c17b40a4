package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // the Echo web framework handles routing

    "github.com/iliyamo/hospital-bed-management/internal/handler"    // handlers implement the endpoint logic
    "github.com/iliyamo/hospital-bed-management/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check, used by load balancers and monitoring to verify the service
// is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// API bundles the handlers the protected routes are built from.
type API struct {
    Beds        *handler.BedHandler
    Assignments *handler.AssignmentHandler
    Reports     *handler.ReportHandler
    Provision   *handler.ProvisionHandler
}

// RegisterAPI registers all authenticated ward endpoints under /v1.
// Every route requires a valid access token; reportCache, when
// non-nil, is applied to the reporting group so dashboard queries are
// served from Redis between refreshes.
//
// Role policy:
//   - reads (bed lookup, history, reports) are open to all staff roles
//   - lifecycle transitions and assignment workflows require clinical
//     staff; housekeeping may additionally mark beds cleaned
//   - provisioning (rooms, bed inventory) is ADMIN only
func RegisterAPI(e *echo.Echo, api *API, jwtSecret string, reportCache echo.MiddlewareFunc) {
    v1 := e.Group("/v1")
    v1.Use(middleware.JWTAuth(jwtSecret))
    v1.Use(middleware.RequireRole("ADMIN", "DOCTOR", "NURSE", "HOUSEKEEPING"))

    clinical := middleware.RequireRole("ADMIN", "DOCTOR", "NURSE")
    admin := middleware.RequireRole("ADMIN")

    // bed lookup and history, open to all staff
    v1.GET("/beds/status-changes", api.Beds.RecentChanges) // registered before /beds/:id so the literal segment wins
    v1.GET("/beds/:id", api.Beds.GetBed)
    v1.GET("/beds/:id/history", api.Beds.History)

    // lifecycle transitions
    v1.POST("/beds/:id/status", api.Beds.ChangeStatus, clinical)
    v1.POST("/beds/:id/maintenance", api.Beds.ReportMaintenance, clinical)
    v1.POST("/beds/:id/cleaned", api.Beds.MarkCleaned) // housekeeping closes its own work
    v1.POST("/beds/:id/reserve", api.Beds.Reserve, clinical)
    v1.POST("/beds/:id/reserve/cancel", api.Beds.CancelReservation, clinical)

    // assignment workflows, the only path to an occupied bed
    v1.POST("/assignments", api.Assignments.Assign, clinical)
    v1.POST("/assignments/transfer", api.Assignments.Transfer, clinical)
    v1.POST("/assignments/release", api.Assignments.Release, clinical)
    v1.GET("/admissions/:id/assignments", api.Assignments.AdmissionAssignments)

    // reporting dashboards, cached when a cache middleware is supplied
    reports := v1.Group("/reports")
    if reportCache != nil {
        reports.Use(reportCache)
    }
    reports.GET("/occupancy", api.Reports.Occupancy)
    reports.GET("/turnover", api.Reports.Turnover)
    reports.GET("/attention", api.Reports.Attention)

    // static inventory provisioning
    v1.POST("/rooms", api.Provision.CreateRoom, admin)
    v1.GET("/rooms", api.Provision.ListRooms)
    v1.GET("/rooms/:id/beds", api.Provision.ListBedsInRoom)
    v1.POST("/rooms/:id/beds", api.Provision.AddBeds, admin)
    v1.PATCH("/beds/:id", api.Provision.UpdateBed, admin)
}
