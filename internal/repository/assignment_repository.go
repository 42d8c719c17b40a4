package repository // repository defines data access for bed assignments

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/hospital-bed-management/internal/model"
)

// AssignmentRepo provides data access to the bed_assignments table.
// Assignment rows are never deleted; releasing clears is_current and
// stamps released_at so that an admission's transfer history is
// preserved in full.  All timestamps are stored in UTC.
type AssignmentRepo struct {
    db *sql.DB
}

// NewAssignmentRepo returns a new AssignmentRepo bound to the given database.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

const assignmentColumns = `id, admission_id, bed_id, assigned_by, assigned_at, released_at, is_current, reason, created_at, updated_at`

func scanAssignment(row *sql.Row) (*model.Assignment, error) {
    var a model.Assignment
    err := row.Scan(
        &a.ID, &a.AdmissionID, &a.BedID, &a.AssignedBy, &a.AssignedAt,
        &a.ReleasedAt, &a.IsCurrent, &a.Reason, &a.CreatedAt, &a.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrAssignmentNotFound
        }
        return nil, err
    }
    return &a, nil
}

// CreateTx inserts a new current assignment within the scope of an
// existing transaction.  It populates the generated ID and timestamps
// on the provided record.  The caller must commit or rollback the
// transaction.
func (r *AssignmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.Assignment) error {
    const q = `INSERT INTO bed_assignments (admission_id, bed_id, assigned_by, assigned_at, is_current, reason)
	           VALUES (?, ?, ?, ?, TRUE, ?)`
    res, err := tx.ExecContext(ctx, q, a.AdmissionID, a.BedID, a.AssignedBy, a.AssignedAt.UTC(), a.Reason)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    a.ID = uint64(id)
    a.IsCurrent = true
    return nil
}

// CurrentByAdmissionTx returns the admission's current assignment
// within a transaction, locking the row so that concurrent transfer
// and release operations on the same admission serialize.  Returns
// ErrAssignmentNotFound when the admission has no current assignment.
func (r *AssignmentRepo) CurrentByAdmissionTx(ctx context.Context, tx *sql.Tx, admissionID uint64) (*model.Assignment, error) {
    const q = `SELECT ` + assignmentColumns + `
	           FROM bed_assignments
	           WHERE admission_id = ? AND is_current = TRUE
	           FOR UPDATE`
    return scanAssignment(tx.QueryRowContext(ctx, q, admissionID))
}

// CurrentByAdmission is the pool-backed variant of CurrentByAdmissionTx
// without locking, for read endpoints.
func (r *AssignmentRepo) CurrentByAdmission(ctx context.Context, admissionID uint64) (*model.Assignment, error) {
    const q = `SELECT ` + assignmentColumns + `
	           FROM bed_assignments
	           WHERE admission_id = ? AND is_current = TRUE`
    return scanAssignment(r.db.QueryRowContext(ctx, q, admissionID))
}

// ReleaseTx closes an assignment within the provided transaction:
// is_current is cleared and released_at stamped.  When reason is
// non-nil it overwrites the reason recorded at assignment time.
func (r *AssignmentRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64, releasedAt time.Time, reason *string) error {
    const q = `UPDATE bed_assignments
	           SET is_current = FALSE, released_at = ?, reason = COALESCE(?, reason), updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND is_current = TRUE`
    res, err := tx.ExecContext(ctx, q, releasedAt.UTC(), reason, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrAssignmentNotFound
    }
    return nil
}

// HistoryByAdmission returns every assignment of an admission, newest
// first, giving the full transfer history of the stay.
func (r *AssignmentRepo) HistoryByAdmission(ctx context.Context, admissionID uint64) ([]model.Assignment, error) {
    const q = `SELECT ` + assignmentColumns + `
	           FROM bed_assignments
	           WHERE admission_id = ?
	           ORDER BY assigned_at DESC`
    rows, err := r.db.QueryContext(ctx, q, admissionID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var result []model.Assignment
    for rows.Next() {
        var a model.Assignment
        if err := rows.Scan(
            &a.ID, &a.AdmissionID, &a.BedID, &a.AssignedBy, &a.AssignedAt,
            &a.ReleasedAt, &a.IsCurrent, &a.Reason, &a.CreatedAt, &a.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, a)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}
