package model

import "time"

// Bed status values.  A bed is always in exactly one of these states
// and may only move between them along the edges enforced by the
// state machine in the engine package.
const (
    BedAvailable   = "available"
    BedOccupied    = "occupied"
    BedCleaning    = "cleaning"
    BedMaintenance = "maintenance"
    BedReserved    = "reserved"
)

// Bed describes a physical bed within a room.  Beds are uniquely
// identified by their room and bed number.  The bed_type indicates
// whether the bed is a standard ward bed, an ICU bed or an
// isolation bed.  Status is owned by the state machine and the
// assignment engine; nothing else writes it.
//
// Fields:
//  ID                    – primary key identifier.
//  RoomID                – room to which this bed belongs.
//  BedNumber             – number of the bed within the room.
//  BedType               – type of bed (STANDARD, ICU, ISOLATION).
//  Status                – lifecycle status (see constants above).
//  MaintenanceReportedAt – when the bed was last flagged for maintenance.
//  LastCleanedAt         – when the bed was last marked cleaned.
//  CreatedAt             – creation timestamp.
//  UpdatedAt             – last update timestamp.
type Bed struct {
    ID                    uint64     // beds.id
    RoomID                uint64     // beds.room_id
    BedNumber             uint32     // beds.bed_number
    BedType               string     // beds.bed_type
    Status                string     // beds.status
    MaintenanceReportedAt *time.Time // beds.maintenance_reported_at (nullable)
    LastCleanedAt         *time.Time // beds.last_cleaned_at (nullable)
    CreatedAt             time.Time  // beds.created_at
    UpdatedAt             time.Time  // beds.updated_at
}
