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

// allowedTransitions is the legal status graph for a single bed.  The
// occupied destinations listed here are only reachable through the
// assignment engine; ApplyTransition rejects them unconditionally.
var allowedTransitions = map[string][]string{
    model.BedAvailable:   {model.BedMaintenance, model.BedReserved, model.BedOccupied},
    model.BedOccupied:    {model.BedAvailable, model.BedCleaning},
    model.BedCleaning:    {model.BedAvailable, model.BedMaintenance},
    model.BedMaintenance: {model.BedCleaning, model.BedAvailable},
    model.BedReserved:    {model.BedAvailable, model.BedOccupied},
}

// transitionAllowed reports whether the graph contains the edge
// current -> next.
func transitionAllowed(current, next string) bool {
    for _, s := range allowedTransitions[current] {
        if s == next {
            return true
        }
    }
    return false
}

// StateMachine enforces the legal status transition graph for a
// single bed and records every transition in the status log.  All
// mutations run inside one transaction with the bed row locked, so
// concurrent writers on the same bed serialize and the loser sees the
// winner's committed status.
type StateMachine struct {
    db       *sql.DB
    beds     *repository.BedRepo
    logs     *repository.StatusLogRepo
    notifier Notifier
    logger   zerolog.Logger
    now      func() time.Time
}

// NewStateMachine constructs a StateMachine.  notifier may be nil to
// disable event fan-out.
func NewStateMachine(db *sql.DB, beds *repository.BedRepo, logs *repository.StatusLogRepo, notifier Notifier, logger zerolog.Logger) *StateMachine {
    if db == nil || beds == nil || logs == nil {
        panic("nil dependency passed to NewStateMachine")
    }
    return &StateMachine{
        db:       db,
        beds:     beds,
        logs:     logs,
        notifier: notifier,
        logger:   logger.With().Str("component", "state_machine").Logger(),
        now:      time.Now,
    }
}

// internal wraps an unexpected storage failure, logging the cause
// before the generic error surfaces to the caller.
func (m *StateMachine) internal(err error, msg string) *Error {
    m.logger.Error().Err(err).Msg(msg)
    return Internal(err)
}

// transitionOutcome carries what applyTx produced so ApplyTransition
// can publish the event after the commit.
type transitionOutcome struct {
    bed       *repository.BedDetail
    oldStatus string
}

// stamp is an optional extra column write performed by the
// sub-operations together with the status update.
type stamp func(ctx context.Context, tx *sql.Tx, bedID uint64, at time.Time) error

// precondition inspects the locked bed before the generic transition
// validation runs and returns a domain error to abort with.
type precondition func(bed *model.Bed) *Error

// applyTx performs one validated transition inside tx: lock the bed,
// run the sub-operation precondition, validate the edge, update the
// status, write the extra stamp and append the log entry.  The old
// status is captured from the locked row before anything mutates and
// is what the log records.
func (m *StateMachine) applyTx(ctx context.Context, tx *sql.Tx, bedID uint64, newStatus, reason string, actorID uint64, pre precondition, extra stamp) (*transitionOutcome, error) {
    bed, err := m.beds.GetForUpdateTx(ctx, tx, bedID)
    if err != nil {
        if errors.Is(err, repository.ErrBedNotFound) {
            return nil, NotFound("Bed not found.")
        }
        return nil, m.internal(err, "lock bed")
    }

    oldStatus := bed.Status

    if pre != nil {
        if derr := pre(bed); derr != nil {
            return nil, derr
        }
    }
    if newStatus == model.BedOccupied {
        // Occupancy is only reachable through the assignment engine.
        return nil, InvalidTransition(fmt.Sprintf("Cannot change bed status from %s to %s.", oldStatus, newStatus))
    }
    if !transitionAllowed(oldStatus, newStatus) {
        return nil, InvalidTransition(fmt.Sprintf("Cannot change bed status from %s to %s.", oldStatus, newStatus))
    }

    if err := m.beds.UpdateStatusTx(ctx, tx, bedID, newStatus); err != nil {
        return nil, m.internal(err, "update bed status")
    }
    if extra != nil {
        if err := extra(ctx, tx, bedID, m.now().UTC()); err != nil {
            return nil, m.internal(err, "stamp bed")
        }
    }

    var reasonPtr *string
    if reason != "" {
        reasonPtr = &reason
    }
    entry := &model.StatusLogEntry{
        BedID:     bedID,
        OldStatus: oldStatus,
        NewStatus: newStatus,
        ChangedBy: actorID,
        Reason:    reasonPtr,
    }
    if err := m.logs.AppendTx(ctx, tx, entry); err != nil {
        return nil, m.internal(err, "append status log")
    }

    detail, err := m.beds.GetDetailTx(ctx, tx, bedID)
    if err != nil {
        return nil, m.internal(err, "load bed detail")
    }
    return &transitionOutcome{bed: detail, oldStatus: oldStatus}, nil
}

// apply runs applyTx in its own transaction and publishes the
// state-change event once the commit is durable.
func (m *StateMachine) apply(ctx context.Context, bedID uint64, newStatus, reason string, actorID uint64, pre precondition, extra stamp) (*repository.BedDetail, error) {
    tx, err := m.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, m.internal(err, "begin transaction")
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    out, err := m.applyTx(ctx, tx, bedID, newStatus, reason, actorID, pre, extra)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, m.internal(err, "commit transaction")
    }
    committed = true

    notify(ctx, m.notifier, m.logger, queue.TopicBedStatusChanged, queue.BedStatusChangedEvent{
        EventID: uuid.NewString(),
        Bed: queue.BedSnapshot{
            BedID:       out.bed.ID,
            BedNumber:   out.bed.BedNumber,
            RoomID:      out.bed.RoomID,
            RoomNumber:  out.bed.RoomNumber,
            FloorNumber: out.bed.FloorNumber,
            Status:      out.bed.Status,
        },
        OldStatus: out.oldStatus,
        NewStatus: out.bed.Status,
        ChangedBy: actorID,
        Reason:    reason,
        ChangedAt: m.now().UTC().Format(time.RFC3339),
    })
    return out.bed, nil
}

// ApplyTransition validates and applies a generic status transition.
// A request targeting occupied always fails InvalidTransition
// regardless of the bed's current status.
func (m *StateMachine) ApplyTransition(ctx context.Context, bedID uint64, newStatus, reason string, actorID uint64) (*repository.BedDetail, error) {
    if _, known := allowedTransitions[newStatus]; !known {
        return nil, InvalidTransition(fmt.Sprintf("Unknown bed status %q.", newStatus))
    }
    return m.apply(ctx, bedID, newStatus, reason, actorID, nil, nil)
}

// MarkForMaintenance flags a bed for maintenance.  Occupied beds
// cannot be flagged; the patient has to be transferred out first.
// The time the report was made is recorded on the bed.
func (m *StateMachine) MarkForMaintenance(ctx context.Context, bedID uint64, reason string, actorID uint64) (*repository.BedDetail, error) {
    pre := func(bed *model.Bed) *Error {
        if bed.Status == model.BedOccupied {
            return InvalidTransition("Bed is currently occupied. Transfer the patient before reporting maintenance.")
        }
        return nil
    }
    return m.apply(ctx, bedID, model.BedMaintenance, reason, actorID, pre, m.beds.StampMaintenanceReportedTx)
}

// MarkCleaned returns a cleaned bed to service.  Only beds in the
// cleaning status qualify.  The cleaning completion time is recorded
// on the bed.
func (m *StateMachine) MarkCleaned(ctx context.Context, bedID uint64, actorID uint64) (*repository.BedDetail, error) {
    pre := func(bed *model.Bed) *Error {
        if bed.Status != model.BedCleaning {
            return InvalidTransition(fmt.Sprintf("Bed is currently %s. Only beds in cleaning status can be marked as cleaned.", bed.Status))
        }
        return nil
    }
    return m.apply(ctx, bedID, model.BedAvailable, "Cleaning completed", actorID, pre, m.beds.StampLastCleanedTx)
}

// Reserve holds an available bed for an incoming admission.
func (m *StateMachine) Reserve(ctx context.Context, bedID uint64, actorID uint64, reason string) (*repository.BedDetail, error) {
    pre := func(bed *model.Bed) *Error {
        if bed.Status != model.BedAvailable {
            return InvalidTransition(fmt.Sprintf("Bed is currently %s. Only available beds can be reserved.", bed.Status))
        }
        return nil
    }
    return m.apply(ctx, bedID, model.BedReserved, reason, actorID, pre, nil)
}

// CancelReservation returns a reserved bed to the available pool.
func (m *StateMachine) CancelReservation(ctx context.Context, bedID uint64, actorID uint64, reason string) (*repository.BedDetail, error) {
    pre := func(bed *model.Bed) *Error {
        if bed.Status != model.BedReserved {
            return InvalidTransition("Bed is not reserved.")
        }
        return nil
    }
    return m.apply(ctx, bedID, model.BedAvailable, reason, actorID, pre, nil)
}
