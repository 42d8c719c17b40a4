package model

import "time"

// Admission status values.  An admission starts active and is moved
// to discharged or deceased exactly once, by the assignment engine's
// release operation.
const (
    AdmissionActive     = "active"
    AdmissionDischarged = "discharged"
    AdmissionDeceased   = "deceased"
)

// Discharge types accepted by release.  "deceased" flips the
// admission status to deceased; every other value discharges.
const (
    DischargeRoutine  = "routine"
    DischargeDeceased = "deceased"
)

// Admission represents one continuous hospital stay for one patient.
// Patient demographics live in a separate subsystem and are
// referenced by PatientID only.
//
// Fields:
//  ID               – primary key identifier.
//  PatientID        – patient this stay belongs to (external reference).
//  Status           – active, discharged or deceased.
//  AdmissionDate    – when the stay began.
//  DischargeDate    – when the stay ended (nil while active).
//  DischargeSummary – free-text summary recorded at release.
//  DischargeType    – routine, deceased, etc.
//  LengthOfStayDays – whole days between admission and discharge.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Admission struct {
    ID               uint64     // admissions.id
    PatientID        uint64     // admissions.patient_id
    Status           string     // admissions.status
    AdmissionDate    time.Time  // admissions.admission_date
    DischargeDate    *time.Time // admissions.discharge_date (nullable)
    DischargeSummary *string    // admissions.discharge_summary (nullable)
    DischargeType    *string    // admissions.discharge_type (nullable)
    LengthOfStayDays *uint32    // admissions.length_of_stay_days (nullable)
    CreatedAt        time.Time  // admissions.created_at
    UpdatedAt        time.Time  // admissions.updated_at
}
