package model

import "time"

// Room represents a physical hospital room containing one or more
// beds.  Rooms are static inventory created at provisioning time.
// The floor is denormalized onto the room as a plain number rather
// than a separate table.
//
// Fields:
//  ID          – primary key identifier.
//  RoomNumber  – unique room designation (e.g. "304-B").
//  FloorNumber – floor the room is located on.
//  Ward        – functional area (e.g. GENERAL, ICU, MATERNITY).
//  IsActive    – whether the room is in service.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Room struct {
    ID          uint64    // rooms.id
    RoomNumber  string    // rooms.room_number
    FloorNumber uint32    // rooms.floor_number
    Ward        string    // rooms.ward
    IsActive    bool      // rooms.is_active
    CreatedAt   time.Time // rooms.created_at
    UpdatedAt   time.Time // rooms.updated_at
}
