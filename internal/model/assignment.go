package model

import "time"

// Assignment binds an admission to a bed for a span of time.  For a
// given admission at most one row has IsCurrent set, and likewise
// for a given bed.  Rows are never deleted; releasing or
// transferring clears IsCurrent and stamps ReleasedAt, preserving
// the full transfer history of a stay.
//
// Fields:
//  ID          – primary key identifier.
//  AdmissionID – admission occupying the bed.
//  BedID       – bed being occupied.
//  AssignedBy  – staff user who performed the assignment.
//  AssignedAt  – when the bed was occupied.
//  ReleasedAt  – when the bed was vacated (nil while current).
//  IsCurrent   – whether this row is the admission's live assignment.
//  Reason      – free-text transfer/release reason.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Assignment struct {
    ID          uint64     // bed_assignments.id
    AdmissionID uint64     // bed_assignments.admission_id
    BedID       uint64     // bed_assignments.bed_id
    AssignedBy  uint64     // bed_assignments.assigned_by
    AssignedAt  time.Time  // bed_assignments.assigned_at
    ReleasedAt  *time.Time // bed_assignments.released_at (nullable)
    IsCurrent   bool       // bed_assignments.is_current
    Reason      *string    // bed_assignments.reason (nullable)
    CreatedAt   time.Time  // bed_assignments.created_at
    UpdatedAt   time.Time  // bed_assignments.updated_at
}
