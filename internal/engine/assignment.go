package engine

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog"

    "github.com/iliyamo/hospital-bed-management/internal/model"
    "github.com/iliyamo/hospital-bed-management/internal/queue"
    "github.com/iliyamo/hospital-bed-management/internal/repository"
)

// AssignmentEngine is the only authorized path to occupy a bed.  It
// owns the assign, transfer and release workflows and guarantees the
// one-active-assignment-per-admission and one-active-assignment-
// per-bed invariants.  Every workflow runs inside one unit of work;
// bed and admission rows are read under row locks so that exactly one
// of two concurrent writers succeeds and the loser receives Conflict.
type AssignmentEngine struct {
    db          *sql.DB
    beds        *repository.BedRepo
    admissions  *repository.AdmissionRepo
    assignments *repository.AssignmentRepo
    logs        *repository.StatusLogRepo
    notifier    Notifier
    logger      zerolog.Logger
    now         func() time.Time
}

// NewAssignmentEngine constructs an AssignmentEngine.  notifier may be
// nil to disable event fan-out.
func NewAssignmentEngine(db *sql.DB, beds *repository.BedRepo, admissions *repository.AdmissionRepo, assignments *repository.AssignmentRepo, logs *repository.StatusLogRepo, notifier Notifier, logger zerolog.Logger) *AssignmentEngine {
    if db == nil || beds == nil || admissions == nil || assignments == nil || logs == nil {
        panic("nil dependency passed to NewAssignmentEngine")
    }
    return &AssignmentEngine{
        db:          db,
        beds:        beds,
        admissions:  admissions,
        assignments: assignments,
        logs:        logs,
        notifier:    notifier,
        logger:      logger.With().Str("component", "assignment_engine").Logger(),
        now:         time.Now,
    }
}

func (e *AssignmentEngine) internal(err error, msg string) *Error {
    e.logger.Error().Err(err).Msg(msg)
    return Internal(err)
}

func snapshotOf(d *repository.BedDetail) queue.BedSnapshot {
    return queue.BedSnapshot{
        BedID:       d.ID,
        BedNumber:   d.BedNumber,
        RoomID:      d.RoomID,
        RoomNumber:  d.RoomNumber,
        FloorNumber: d.FloorNumber,
        Status:      d.Status,
    }
}

// AssignResult is what a successful assign or transfer produced.
// OldBed is nil unless the admission was moved off a previous bed.
type AssignResult struct {
    Assignment *model.Assignment      `json:"assignment"`
    Bed        *repository.BedDetail  `json:"bed"`
    OldBed     *repository.BedDetail  `json:"old_bed,omitempty"`
    assignedBy uint64
}

// Assign binds an admission to an available (or reserved) bed inside
// its own unit of work and publishes the matching events after the
// commit.  If the admission already occupies a bed the old bed is
// released to cleaning in the same transaction, making assign onto a
// new bed an atomic transfer.
func (e *AssignmentEngine) Assign(ctx context.Context, admissionID, bedID, assignedBy uint64) (*AssignResult, error) {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, e.internal(err, "begin transaction")
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := e.AssignTx(ctx, tx, admissionID, bedID, assignedBy, nil)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, e.internal(err, "commit transaction")
    }
    committed = true

    e.FinishAssign(ctx, res)
    return res, nil
}

// AssignTx is Assign within an externally supplied unit of work: the
// caller owns commit and rollback, and the engine never ends the
// transaction itself.  Events are not published here; once the caller
// has committed it should hand the result to FinishAssign.  reason,
// when non-nil, is recorded on the new assignment row (transfers use
// this).
func (e *AssignmentEngine) AssignTx(ctx context.Context, tx *sql.Tx, admissionID, bedID, assignedBy uint64, reason *string) (*AssignResult, error) {
    bed, err := e.beds.GetForUpdateTx(ctx, tx, bedID)
    if err != nil {
        if errors.Is(err, repository.ErrBedNotFound) {
            return nil, NotFound("Bed not found.")
        }
        return nil, e.internal(err, "lock bed")
    }
    if bed.Status != model.BedAvailable && bed.Status != model.BedReserved {
        return nil, Conflict(fmt.Sprintf("Bed %d is currently %s. Please select an available bed.", bed.BedNumber, bed.Status))
    }
    // Captured before any mutation; this is what the log records.
    targetOldStatus := bed.Status

    admission, err := e.admissions.GetForUpdateTx(ctx, tx, admissionID)
    if err != nil {
        if errors.Is(err, repository.ErrAdmissionNotFound) {
            return nil, NotFound("Admission not found.")
        }
        return nil, e.internal(err, "lock admission")
    }
    if admission.Status != model.AdmissionActive {
        return nil, Conflict("Patient has already been discharged.")
    }

    now := e.now().UTC()
    result := &AssignResult{assignedBy: assignedBy}

    // An existing current assignment makes this a transfer: vacate the
    // old bed to cleaning before occupying the new one.
    current, err := e.assignments.CurrentByAdmissionTx(ctx, tx, admissionID)
    switch {
    case err == nil:
        if current.BedID == bedID {
            return nil, Conflict(fmt.Sprintf("Bed %d is currently %s. Please select an available bed.", bed.BedNumber, bed.Status))
        }
        oldBed, lerr := e.beds.GetForUpdateTx(ctx, tx, current.BedID)
        if lerr != nil {
            return nil, e.internal(lerr, "lock old bed")
        }
        oldStatus := oldBed.Status
        if rerr := e.assignments.ReleaseTx(ctx, tx, current.ID, now, nil); rerr != nil {
            return nil, e.internal(rerr, "release old assignment")
        }
        if uerr := e.beds.UpdateStatusTx(ctx, tx, oldBed.ID, model.BedCleaning); uerr != nil {
            return nil, e.internal(uerr, "vacate old bed")
        }
        transferReason := fmt.Sprintf("Transfer to bed %d", bed.BedNumber)
        if lerr := e.logs.AppendTx(ctx, tx, &model.StatusLogEntry{
            BedID:        oldBed.ID,
            OldStatus:    oldStatus,
            NewStatus:    model.BedCleaning,
            ChangedBy:    assignedBy,
            Reason:       &transferReason,
            AdmissionID:  &admissionID,
            AssignmentID: &current.ID,
        }); lerr != nil {
            return nil, e.internal(lerr, "append old bed status log")
        }
        oldDetail, derr := e.beds.GetDetailTx(ctx, tx, oldBed.ID)
        if derr != nil {
            return nil, e.internal(derr, "load old bed detail")
        }
        result.OldBed = oldDetail
    case errors.Is(err, repository.ErrAssignmentNotFound):
        // First assignment for this admission.
    default:
        return nil, e.internal(err, "load current assignment")
    }

    if err := e.beds.UpdateStatusTx(ctx, tx, bedID, model.BedOccupied); err != nil {
        return nil, e.internal(err, "occupy bed")
    }

    assignment := &model.Assignment{
        AdmissionID: admissionID,
        BedID:       bedID,
        AssignedBy:  assignedBy,
        AssignedAt:  now,
        Reason:      reason,
    }
    if err := e.assignments.CreateTx(ctx, tx, assignment); err != nil {
        return nil, e.internal(err, "create assignment")
    }

    assignReason := fmt.Sprintf("Assigned to admission ID: %d", admissionID)
    if err := e.logs.AppendTx(ctx, tx, &model.StatusLogEntry{
        BedID:        bedID,
        OldStatus:    targetOldStatus,
        NewStatus:    model.BedOccupied,
        ChangedBy:    assignedBy,
        Reason:       &assignReason,
        AdmissionID:  &admissionID,
        AssignmentID: &assignment.ID,
    }); err != nil {
        return nil, e.internal(err, "append status log")
    }

    detail, err := e.beds.GetDetailTx(ctx, tx, bedID)
    if err != nil {
        return nil, e.internal(err, "load bed detail")
    }
    result.Assignment = assignment
    result.Bed = detail
    return result, nil
}

// FinishAssign publishes the events for a committed assign or
// transfer.  Callers owning an external unit of work invoke it once
// their transaction has durably committed.
func (e *AssignmentEngine) FinishAssign(ctx context.Context, res *AssignResult) {
    if res == nil || res.Assignment == nil {
        return
    }
    at := res.Assignment.AssignedAt.Format(time.RFC3339)
    if res.OldBed != nil {
        reason := ""
        if res.Assignment.Reason != nil {
            reason = *res.Assignment.Reason
        }
        notify(ctx, e.notifier, e.logger, queue.TopicBedTransferred, queue.BedTransferredEvent{
            EventID:       uuid.NewString(),
            AssignmentID:  res.Assignment.ID,
            AdmissionID:   res.Assignment.AdmissionID,
            OldBed:        snapshotOf(res.OldBed),
            NewBed:        snapshotOf(res.Bed),
            AssignedBy:    res.assignedBy,
            Reason:        reason,
            TransferredAt: at,
        })
        return
    }
    notify(ctx, e.notifier, e.logger, queue.TopicBedAssigned, queue.BedAssignedEvent{
        EventID:      uuid.NewString(),
        AssignmentID: res.Assignment.ID,
        AdmissionID:  res.Assignment.AdmissionID,
        Bed:          snapshotOf(res.Bed),
        AssignedBy:   res.assignedBy,
        AssignedAt:   at,
    })
}

// Transfer moves an admission from its current bed to a new one in a
// single unit of work.  The supplied reason is recorded on the new
// assignment row.
func (e *AssignmentEngine) Transfer(ctx context.Context, admissionID, newBedID, assignedBy uint64, reason string) (*AssignResult, error) {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, e.internal(err, "begin transaction")
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // A transfer requires an existing current assignment.
    if _, err := e.assignments.CurrentByAdmissionTx(ctx, tx, admissionID); err != nil {
        if errors.Is(err, repository.ErrAssignmentNotFound) {
            return nil, NotFound("No admission found.")
        }
        return nil, e.internal(err, "load current assignment")
    }

    var reasonPtr *string
    if reason != "" {
        reasonPtr = &reason
    }
    res, err := e.AssignTx(ctx, tx, admissionID, newBedID, assignedBy, reasonPtr)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, e.internal(err, "commit transaction")
    }
    committed = true

    e.FinishAssign(ctx, res)
    return res, nil
}

// ReleaseResult is what a successful release produced: the discharged
// admission, the closed assignment, the vacated bed and the computed
// length of stay.
type ReleaseResult struct {
    Admission        *model.Admission      `json:"admission"`
    Assignment       *model.Assignment     `json:"assignment"`
    Bed              *repository.BedDetail `json:"bed"`
    LengthOfStayDays uint32                `json:"length_of_stay_days"`
    bedOldStatus     string
}

// lengthOfStayDays computes the stay length in whole days between the
// admission and discharge calendar dates (UTC).  Partial days round
// up to the day boundary and a same-day discharge counts as one day.
func lengthOfStayDays(admitted, discharged time.Time) uint32 {
    const day = 24 * time.Hour
    a := admitted.UTC().Truncate(day)
    d := discharged.UTC().Truncate(day)
    if !d.After(a) {
        return 1
    }
    return uint32(d.Sub(a) / day)
}

// Release discharges an admission and vacates its bed inside one unit
// of work.  The bed's status-log entry is advisory audit data and is
// appended after the commit, followed by the released and discharged
// events.
func (e *AssignmentEngine) Release(ctx context.Context, admissionID uint64, reason, dischargeType, dischargeSummary string) (*ReleaseResult, error) {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, e.internal(err, "begin transaction")
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := e.ReleaseTx(ctx, tx, admissionID, reason, dischargeType, dischargeSummary)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, e.internal(err, "commit transaction")
    }
    committed = true

    e.FinishRelease(ctx, res)
    return res, nil
}

// ReleaseTx is Release within an externally supplied unit of work:
// the caller owns commit and rollback.  After committing, the caller
// must hand the result to FinishRelease so the advisory status-log
// entry and the events still happen.
func (e *AssignmentEngine) ReleaseTx(ctx context.Context, tx *sql.Tx, admissionID uint64, reason, dischargeType, dischargeSummary string) (*ReleaseResult, error) {
    admission, err := e.admissions.GetForUpdateTx(ctx, tx, admissionID)
    if err != nil {
        if errors.Is(err, repository.ErrAdmissionNotFound) {
            return nil, NotFound("Admission not found.")
        }
        return nil, e.internal(err, "lock admission")
    }
    if admission.Status != model.AdmissionActive {
        return nil, Conflict("Patient has already been discharged.")
    }

    current, err := e.assignments.CurrentByAdmissionTx(ctx, tx, admissionID)
    if err != nil {
        if errors.Is(err, repository.ErrAssignmentNotFound) {
            return nil, NotFound("No active bed assignment found for this admission.")
        }
        return nil, e.internal(err, "load current assignment")
    }

    bed, err := e.beds.GetForUpdateTx(ctx, tx, current.BedID)
    if err != nil {
        return nil, e.internal(err, "lock bed")
    }
    bedOldStatus := bed.Status

    dischargeDate := e.now().UTC()
    los := lengthOfStayDays(admission.AdmissionDate, dischargeDate)

    finalStatus := model.AdmissionDischarged
    if dischargeType == model.DischargeDeceased {
        finalStatus = model.AdmissionDeceased
    }
    if err := e.admissions.DischargeTx(ctx, tx, admissionID, finalStatus, dischargeDate, dischargeSummary, dischargeType, los); err != nil {
        return nil, e.internal(err, "discharge admission")
    }

    var reasonPtr *string
    if reason != "" {
        reasonPtr = &reason
    }
    if err := e.assignments.ReleaseTx(ctx, tx, current.ID, dischargeDate, reasonPtr); err != nil {
        return nil, e.internal(err, "release assignment")
    }
    if err := e.beds.UpdateStatusTx(ctx, tx, bed.ID, model.BedCleaning); err != nil {
        return nil, e.internal(err, "vacate bed")
    }

    detail, err := e.beds.GetDetailTx(ctx, tx, bed.ID)
    if err != nil {
        return nil, e.internal(err, "load bed detail")
    }

    admission.Status = finalStatus
    admission.DischargeDate = &dischargeDate
    admission.DischargeSummary = &dischargeSummary
    admission.DischargeType = &dischargeType
    admission.LengthOfStayDays = &los
    current.IsCurrent = false
    current.ReleasedAt = &dischargeDate
    if reasonPtr != nil {
        current.Reason = reasonPtr
    }

    return &ReleaseResult{
        Admission:        admission,
        Assignment:       current,
        Bed:              detail,
        LengthOfStayDays: los,
        bedOldStatus:     bedOldStatus,
    }, nil
}

// FinishRelease appends the advisory status-log entry for the vacated
// bed and publishes the release events.  It must run after the unit
// of work has durably committed; a failed append is logged and never
// surfaced.
func (e *AssignmentEngine) FinishRelease(ctx context.Context, res *ReleaseResult) {
    if res == nil || res.Assignment == nil {
        return
    }
    reason := "Patient discharged"
    if res.Assignment.Reason != nil && *res.Assignment.Reason != "" {
        reason = *res.Assignment.Reason
    }
    if err := e.logs.Append(ctx, &model.StatusLogEntry{
        BedID:        res.Bed.ID,
        OldStatus:    res.bedOldStatus,
        NewStatus:    model.BedCleaning,
        ChangedBy:    res.Assignment.AssignedBy,
        Reason:       &reason,
        AdmissionID:  &res.Assignment.AdmissionID,
        AssignmentID: &res.Assignment.ID,
    }); err != nil {
        e.logger.Error().Err(err).Uint64("bed_id", res.Bed.ID).Msg("append release status log")
    }

    releasedAt := ""
    if res.Assignment.ReleasedAt != nil {
        releasedAt = res.Assignment.ReleasedAt.Format(time.RFC3339)
    }
    notify(ctx, e.notifier, e.logger, queue.TopicBedReleased, queue.BedReleasedEvent{
        EventID:      uuid.NewString(),
        AssignmentID: res.Assignment.ID,
        AdmissionID:  res.Assignment.AdmissionID,
        Bed:          snapshotOf(res.Bed),
        ReleasedAt:   releasedAt,
    })
    dischargeType := ""
    if res.Admission.DischargeType != nil {
        dischargeType = *res.Admission.DischargeType
    }
    notify(ctx, e.notifier, e.logger, queue.TopicAdmissionDischarged, queue.AdmissionDischargedEvent{
        EventID:          uuid.NewString(),
        AdmissionID:      res.Admission.ID,
        PatientID:        res.Admission.PatientID,
        Status:           res.Admission.Status,
        DischargeType:    dischargeType,
        LengthOfStayDays: res.LengthOfStayDays,
        DischargedAt:     releasedAt,
    })
}
