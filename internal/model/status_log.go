package model

import "time"

// StatusLogEntry is one immutable record of a bed status transition.
// Rows are append-only: the table has no update or delete path and
// serves as the authoritative audit trail for bed movements.
//
// Fields:
//  ID           – primary key identifier.
//  BedID        – bed whose status changed.
//  OldStatus    – status of the bed immediately before the change.
//  NewStatus    – status the bed was moved to.
//  ChangedBy    – staff user who triggered the change.
//  Reason       – free-text reason supplied by the caller.
//  AdmissionID  – correlated admission, when the change was driven
//                 by an assignment or release.
//  AssignmentID – correlated assignment row, when applicable.
//  CreatedAt    – when the transition happened.
type StatusLogEntry struct {
    ID           uint64    // bed_status_logs.id
    BedID        uint64    // bed_status_logs.bed_id
    OldStatus    string    // bed_status_logs.old_status
    NewStatus    string    // bed_status_logs.new_status
    ChangedBy    uint64    // bed_status_logs.changed_by
    Reason       *string   // bed_status_logs.reason (nullable)
    AdmissionID  *uint64   // bed_status_logs.admission_id (nullable)
    AssignmentID *uint64   // bed_status_logs.assignment_id (nullable)
    CreatedAt    time.Time // bed_status_logs.created_at
}
