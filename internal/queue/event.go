// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used as publish topics.  Each event stream gets its own
// durable queue so that downstream consumers (floor dashboards, the
// ward event log) can subscribe independently.
const (
    TopicBedStatusChanged    = "bed.status-changed"
    TopicBedAssigned         = "bed.assigned"
    TopicBedTransferred      = "bed.transferred"
    TopicBedReleased         = "bed.released"
    TopicAdmissionDischarged = "admission.discharged"
)

// BedSnapshot carries enough bed and room context for a consumer to
// render a floor view without querying the primary database.
type BedSnapshot struct {
    BedID       uint64 `json:"bed_id"`
    BedNumber   uint32 `json:"bed_number"`
    RoomID      uint64 `json:"room_id"`
    RoomNumber  string `json:"room_number"`
    FloorNumber uint32 `json:"floor_number"`
    Status      string `json:"status"`
}

// BedStatusChangedEvent is published after any committed bed status
// transition outside the assignment flows.
type BedStatusChangedEvent struct {
    EventID   string      `json:"event_id"`
    Bed       BedSnapshot `json:"bed"`
    OldStatus string      `json:"old_status"`
    NewStatus string      `json:"new_status"`
    ChangedBy uint64      `json:"changed_by"`
    Reason    string      `json:"reason,omitempty"`
    ChangedAt string      `json:"changed_at"`
}

// BedAssignedEvent is published after an admission occupies a bed.
type BedAssignedEvent struct {
    EventID      string      `json:"event_id"`
    AssignmentID uint64      `json:"assignment_id"`
    AdmissionID  uint64      `json:"admission_id"`
    Bed          BedSnapshot `json:"bed"`
    AssignedBy   uint64      `json:"assigned_by"`
    AssignedAt   string      `json:"assigned_at"`
}

// BedTransferredEvent is published after a transfer, carrying both the
// vacated bed (now cleaning) and the newly occupied bed.
type BedTransferredEvent struct {
    EventID      string      `json:"event_id"`
    AssignmentID uint64      `json:"assignment_id"`
    AdmissionID  uint64      `json:"admission_id"`
    OldBed       BedSnapshot `json:"old_bed"`
    NewBed       BedSnapshot `json:"new_bed"`
    AssignedBy   uint64      `json:"assigned_by"`
    Reason       string      `json:"reason,omitempty"`
    TransferredAt string     `json:"transferred_at"`
}

// BedReleasedEvent is published after a discharge vacates a bed.
type BedReleasedEvent struct {
    EventID      string      `json:"event_id"`
    AssignmentID uint64      `json:"assignment_id"`
    AdmissionID  uint64      `json:"admission_id"`
    Bed          BedSnapshot `json:"bed"`
    ReleasedAt   string      `json:"released_at"`
}

// AdmissionDischargedEvent is published after a release updates the
// admission itself.
type AdmissionDischargedEvent struct {
    EventID          string `json:"event_id"`
    AdmissionID      uint64 `json:"admission_id"`
    PatientID        uint64 `json:"patient_id"`
    Status           string `json:"status"`
    DischargeType    string `json:"discharge_type"`
    LengthOfStayDays uint32 `json:"length_of_stay_days"`
    DischargedAt     string `json:"discharged_at"`
}
