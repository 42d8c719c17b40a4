package handler

import (
    "errors"   // errors.Is comparisons against repository sentinels
    "net/http" // HTTP status codes
    "strings"  // trimming and normalizing request fields

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hospital-bed-management/internal/model"
    "github.com/iliyamo/hospital-bed-management/internal/repository"
)

// validBedTypes are the bed types provisioning accepts.
var validBedTypes = map[string]bool{
    "STANDARD":  true,
    "ICU":       true,
    "ISOLATION": true,
}

// ProvisionHandler serves the static inventory endpoints: creating
// rooms, adding beds to them and retyping beds.  These routes are
// ADMIN-only; the lifecycle endpoints never create or delete beds and
// provisioning never touches a bed's status.
type ProvisionHandler struct {
    Rooms *repository.RoomRepo
    Beds  *repository.BedRepo
}

// NewProvisionHandler constructs a ProvisionHandler.  All dependencies
// must be non-nil.
func NewProvisionHandler(rooms *repository.RoomRepo, beds *repository.BedRepo) *ProvisionHandler {
    if rooms == nil || beds == nil {
        panic("nil repository passed to NewProvisionHandler")
    }
    return &ProvisionHandler{Rooms: rooms, Beds: beds}
}

// CreateRoom handles POST /v1/rooms.  Optionally seeds the room with
// an initial count of standard beds numbered from 1.
func (h *ProvisionHandler) CreateRoom(c echo.Context) error {
    var body struct {
        RoomNumber  string `json:"room_number"`  // required unique designation
        FloorNumber uint32 `json:"floor_number"` // floor the room is on
        Ward        string `json:"ward"`         // functional area label
        BedCount    uint32 `json:"bed_count"`    // optional initial bed count
        BedType     string `json:"bed_type"`     // type for the initial beds
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    roomNumber := strings.TrimSpace(body.RoomNumber)
    if roomNumber == "" || body.FloorNumber == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_number and floor_number are required"})
    }
    ward := strings.ToUpper(strings.TrimSpace(body.Ward))
    if ward == "" {
        ward = "GENERAL"
    }
    bedType := strings.ToUpper(strings.TrimSpace(body.BedType))
    if bedType == "" {
        bedType = "STANDARD"
    }
    if !validBedTypes[bedType] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "bed_type must be STANDARD, ICU or ISOLATION"})
    }
    if body.BedCount > 100 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "bed_count must not exceed 100"})
    }

    room := &model.Room{
        RoomNumber:  roomNumber,
        FloorNumber: body.FloorNumber,
        Ward:        ward,
        IsActive:    true,
    }
    if err := h.Rooms.Create(c.Request().Context(), room); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create room"})
    }

    if body.BedCount > 0 {
        beds := make([]model.Bed, 0, body.BedCount)
        for n := uint32(1); n <= body.BedCount; n++ {
            beds = append(beds, model.Bed{
                RoomID:    room.ID,
                BedNumber: n,
                BedType:   bedType,
            })
        }
        if err := h.Beds.CreateBulk(c.Request().Context(), beds); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "room created but beds could not be added"})
        }
    }
    return c.JSON(http.StatusCreated, room)
}

// ListRooms handles GET /v1/rooms.
func (h *ProvisionHandler) ListRooms(c echo.Context) error {
    items, err := h.Rooms.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListBedsInRoom handles GET /v1/rooms/:id/beds.
func (h *ProvisionHandler) ListBedsInRoom(c echo.Context) error {
    roomID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    if _, err := h.Rooms.GetByID(c.Request().Context(), roomID); err != nil {
        if errors.Is(err, repository.ErrRoomNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    items, err := h.Beds.ListByRoom(c.Request().Context(), roomID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AddBeds handles POST /v1/rooms/:id/beds and appends beds to an
// existing room.  Bed numbers continue after the room's current
// highest number.
func (h *ProvisionHandler) AddBeds(c echo.Context) error {
    roomID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    var body struct {
        Count   uint32 `json:"count"`    // how many beds to add
        BedType string `json:"bed_type"` // type for the new beds
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Count == 0 || body.Count > 100 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must be between 1 and 100"})
    }
    bedType := strings.ToUpper(strings.TrimSpace(body.BedType))
    if bedType == "" {
        bedType = "STANDARD"
    }
    if !validBedTypes[bedType] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "bed_type must be STANDARD, ICU or ISOLATION"})
    }
    if _, err := h.Rooms.GetByID(c.Request().Context(), roomID); err != nil {
        if errors.Is(err, repository.ErrRoomNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    existing, err := h.Beds.ListByRoom(c.Request().Context(), roomID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    next := uint32(0)
    for _, b := range existing {
        if b.BedNumber > next {
            next = b.BedNumber
        }
    }

    beds := make([]model.Bed, 0, body.Count)
    for i := uint32(1); i <= body.Count; i++ {
        beds = append(beds, model.Bed{
            RoomID:    roomID,
            BedNumber: next + i,
            BedType:   bedType,
        })
    }
    if err := h.Beds.CreateBulk(c.Request().Context(), beds); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create beds"})
    }

    items, err := h.Beds.ListByRoom(c.Request().Context(), roomID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"items": items})
}

// UpdateBed handles PATCH /v1/beds/:id and changes a bed's type.
// Status is never writable here; lifecycle transitions go through the
// state machine endpoints.
func (h *ProvisionHandler) UpdateBed(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bed id"})
    }
    var body struct {
        BedType string `json:"bed_type"` // new type for the bed
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    bedType := strings.ToUpper(strings.TrimSpace(body.BedType))
    if !validBedTypes[bedType] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "bed_type must be STANDARD, ICU or ISOLATION"})
    }
    if _, err := h.Beds.GetByID(c.Request().Context(), id); err != nil {
        if errors.Is(err, repository.ErrBedNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Bed not found."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if err := h.Beds.UpdateTypeByID(c.Request().Context(), id, bedType); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    bed, err := h.Beds.GetByID(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, bed)
}
