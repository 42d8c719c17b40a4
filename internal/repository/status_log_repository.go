package repository // repository defines data access for the bed status log

import (
    "context"
    "database/sql"

    "github.com/iliyamo/hospital-bed-management/internal/model"
)

// StatusLogRepo provides append and read access to the bed_status_logs
// table.  The table is append-only: no update or delete methods exist
// and none should ever be added.  Entries are the authoritative audit
// trail for every bed status transition.
type StatusLogRepo struct {
    db *sql.DB
}

// NewStatusLogRepo returns a new StatusLogRepo bound to the given database.
func NewStatusLogRepo(db *sql.DB) *StatusLogRepo { return &StatusLogRepo{db: db} }

const statusLogInsert = `INSERT INTO bed_status_logs (bed_id, old_status, new_status, changed_by, reason, admission_id, assignment_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`

// AppendTx inserts one status log entry within the provided
// transaction so that the entry commits or rolls back together with
// the status change it records.  The caller owns commit/rollback.
func (r *StatusLogRepo) AppendTx(ctx context.Context, tx *sql.Tx, e *model.StatusLogEntry) error {
    res, err := tx.ExecContext(ctx, statusLogInsert,
        e.BedID, e.OldStatus, e.NewStatus, e.ChangedBy, e.Reason, e.AdmissionID, e.AssignmentID)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

// Append inserts one status log entry outside any transaction.  Used
// for advisory entries written after a unit of work has committed,
// such as the bed transition logged by release.
func (r *StatusLogRepo) Append(ctx context.Context, e *model.StatusLogEntry) error {
    res, err := r.db.ExecContext(ctx, statusLogInsert,
        e.BedID, e.OldStatus, e.NewStatus, e.ChangedBy, e.Reason, e.AdmissionID, e.AssignmentID)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

const statusLogColumns = `id, bed_id, old_status, new_status, changed_by, reason, admission_id, assignment_id, created_at`

func collectStatusLogs(rows *sql.Rows) ([]model.StatusLogEntry, error) {
    defer rows.Close()
    entries := make([]model.StatusLogEntry, 0)
    for rows.Next() {
        var e model.StatusLogEntry
        if err := rows.Scan(
            &e.ID, &e.BedID, &e.OldStatus, &e.NewStatus, &e.ChangedBy,
            &e.Reason, &e.AdmissionID, &e.AssignmentID, &e.CreatedAt,
        ); err != nil {
            return nil, err
        }
        entries = append(entries, e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return entries, nil
}

// HistoryByBed returns the transitions of one bed, most recent first,
// bounded by limit.
func (r *StatusLogRepo) HistoryByBed(ctx context.Context, bedID uint64, limit int) ([]model.StatusLogEntry, error) {
    const q = `SELECT ` + statusLogColumns + `
	           FROM bed_status_logs
	           WHERE bed_id = ?
	           ORDER BY created_at DESC, id DESC
	           LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, bedID, limit)
    if err != nil {
        return nil, err
    }
    return collectStatusLogs(rows)
}

// RecentChanges returns all transitions across all beds within the
// last N hours, most recent first.
func (r *StatusLogRepo) RecentChanges(ctx context.Context, hours int) ([]model.StatusLogEntry, error) {
    const q = `SELECT ` + statusLogColumns + `
	           FROM bed_status_logs
	           WHERE created_at >= UTC_TIMESTAMP() - INTERVAL ? HOUR
	           ORDER BY created_at DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, hours)
    if err != nil {
        return nil, err
    }
    return collectStatusLogs(rows)
}
